package guardian

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"YieldGuardian/internal/model"
	"YieldGuardian/internal/notifier"
)

const historyLimit = 10

// HandleCommand processes an operator command and returns the reply.
func (g *Guardian) HandleCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(fields[0])
	// Commands in group chats arrive as /status@BotName.
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		return notifier.FormatHelp()
	case "/status":
		return g.cmdStatus()
	case "/budget":
		g.Ledger.Accrue(time.Now())
		snap := g.Ledger.Snapshot(time.Now())
		return notifier.FormatBudgetDetails(&snap)
	case "/yield":
		g.Ledger.Accrue(time.Now())
		snap := g.Ledger.Snapshot(time.Now())
		return notifier.FormatYieldDetails(&snap)
	case "/history":
		return g.cmdHistory()
	case "/spend":
		return g.cmdSpend(args)
	case "/topup":
		g.Ledger.Accrue(time.Now())
		snap := g.Ledger.Snapshot(time.Now())
		return notifier.FormatTopup(&snap)
	case "/transfer":
		return g.cmdTransfer(args)
	case "/mode":
		return g.cmdMode(args)
	default:
		return "Unknown command. Send /help for the command list."
	}
}

func (g *Guardian) cmdStatus() string {
	// Balance reads happen before the snapshot so no network call runs
	// under the ledger lock.
	balances := g.Monitor.StablecoinBalances(g.Ctx)
	g.Ledger.Accrue(time.Now())
	snap := g.Ledger.Snapshot(time.Now())
	return notifier.FormatStatus(&snap, balances)
}

func (g *Guardian) cmdHistory() string {
	txs, err := g.Audit.RecentTransactions(historyLimit)
	if err != nil {
		log.Printf("[ERROR] read history: %v", err)
		return "⚠️ Could not read transaction history."
	}
	return notifier.FormatHistory(txs)
}

// parseAmount validates an operator-entered amount: it must parse as a
// decimal and be positive.
func parseAmount(args []string) (decimal.Decimal, error) {
	if len(args) == 0 {
		return decimal.Zero, fmt.Errorf("missing amount")
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(args[0], "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", args[0])
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", amount)
	}
	return amount, nil
}

// cmdSpend pre-authorizes an amount against the budget. It books nothing.
func (g *Guardian) cmdSpend(args []string) string {
	amount, err := parseAmount(args)
	if err != nil {
		return "Usage: /spend 50 to check if $50 is within your yield budget"
	}
	g.Ledger.Accrue(time.Now())
	return notifier.FormatSpendCheck(amount, g.Ledger.AvailableBudget(), g.Ledger.TotalDailyYield())
}

// cmdTransfer moves yield to the payout card: budget check, relay execute,
// then book the spend. The booking happens only after the transfer
// succeeded in the real world.
func (g *Guardian) cmdTransfer(args []string) string {
	amount, err := parseAmount(args)
	if err != nil {
		return "Usage: /transfer 5 to transfer $5 to your card"
	}
	if !g.Executor.Enabled() {
		return "⚠️ Transfer executor is not configured."
	}

	g.Ledger.Accrue(time.Now())
	available := g.Ledger.AvailableBudget()
	if amount.GreaterThan(available) {
		return fmt.Sprintf("❌ Cannot transfer $%s\nMaximum available from yield: $%s",
			amount.StringFixed(2), available.StringFixed(2))
	}

	g.trySend(fmt.Sprintf("⏳ <b>Executing transfer...</b>\n\nSending $%s USDC to your card...", amount.StringFixed(2)))

	result, err := g.Executor.Execute(g.Ctx, amount)
	if err != nil {
		log.Printf("[ERROR] execute transfer: %v", err)
		return fmt.Sprintf("❌ <b>Transfer Failed</b>\n\nError: %v\n\nPlease try again.", err)
	}
	if !result.Success {
		return fmt.Sprintf("❌ <b>Transfer Failed</b>\n\nError: %s\n\nPlease try again.", result.Error)
	}

	dec, err := g.Ledger.AuthorizeAndRecord(amount)
	if err != nil {
		// Unreachable for a positive parsed amount; fail loudly if it is.
		log.Printf("[ERROR] book transfer spend: %v", err)
		return fmt.Sprintf("⚠️ Transfer sent but booking failed: %v", err)
	}

	status := model.StatusWithinBudget
	if !dec.WithinBudget {
		status = model.StatusOverBudget
	}
	id := result.TxHash
	if id == "" {
		id = uuid.NewString()
	}
	tx := &model.Transaction{
		ID:        id,
		Timestamp: time.Now(),
		AmountUSD: amount,
		Asset:     "USDC",
		Direction: model.DirectionOut,
		Category:  "card_topup",
		Status:    status,
	}
	if err := g.Audit.UpsertTransaction(tx); err != nil {
		log.Printf("[ERROR] audit transfer %s: %v", tx.ID, err)
	}
	g.WriteSnapshot()

	return notifier.FormatTransferReceipt(amount, result.ExplorerURL)
}

func (g *Guardian) cmdMode(args []string) string {
	if len(args) == 0 {
		current := g.Ledger.Mode()
		return fmt.Sprintf("Current mode: <b>%s</b> (%s)\n\n"+
			"Switch with /mode conservative, /mode balanced, or /mode growth.",
			current.Title(), current.Retention().Mul(decimal.NewFromInt(100)).StringFixed(0)+"%")
	}

	mode, err := model.ParseSpendingMode(args[0])
	if err != nil {
		return fmt.Sprintf("Unknown mode %q. Valid modes: conservative, balanced, growth.", args[0])
	}
	if err := g.Ledger.SetMode(mode); err != nil {
		return fmt.Sprintf("⚠️ Could not change mode: %v", err)
	}
	g.WriteSnapshot()
	return notifier.FormatModeChanged(mode, g.Ledger.AvailableBudget())
}
