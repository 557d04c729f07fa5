package notifier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"YieldGuardian/internal/ledger"
	"YieldGuardian/internal/model"
)

func usd(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func pct(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}

// FormatStatus formats the headline ledger summary.
func FormatStatus(snap *model.LedgerSnapshot, balances map[string]decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("🛡️ <b>Yield Guardian Status</b>\n\n")
	b.WriteString(fmt.Sprintf("💰 Principal Protected: %s\n", usd(snap.PrincipalUSD)))
	b.WriteString(fmt.Sprintf("📈 Yield Accrued: %s\n", usd(snap.AccruedYieldUSD)))
	b.WriteString(fmt.Sprintf("💸 Yield Spent: %s\n", usd(snap.SpentFromYieldUSD)))
	b.WriteString(fmt.Sprintf("✅ Available Budget: %s\n\n", usd(snap.AvailableBudget)))
	b.WriteString(fmt.Sprintf("⚙️ Mode: %s (%s)\n", snap.Mode.Title(), pct(snap.Mode.Retention())))
	b.WriteString(fmt.Sprintf("📊 Daily Yield: %s/day\n", usd(snap.TotalDailyYield)))

	if len(balances) > 0 {
		b.WriteString("\n<b>Wallet balances:</b>\n")
		total := decimal.Zero
		for symbol, bal := range balances {
			b.WriteString(fmt.Sprintf("  %s: %s\n", symbol, usd(bal)))
			total = total.Add(bal)
		}
		b.WriteString(fmt.Sprintf("  Total: %s\n", usd(total)))
	}
	return b.String()
}

// FormatBudgetDetails formats the detailed budget breakdown.
func FormatBudgetDetails(snap *model.LedgerSnapshot) string {
	net := snap.NetYield()
	reserved := net.Sub(snap.AvailableBudget)

	var b strings.Builder
	b.WriteString("📊 <b>Budget Details</b>\n\n")
	b.WriteString("<b>Yield Account:</b>\n")
	b.WriteString(fmt.Sprintf("  Accrued: %s\n", usd(snap.AccruedYieldUSD)))
	b.WriteString(fmt.Sprintf("  Spent: %s\n", usd(snap.SpentFromYieldUSD)))
	b.WriteString(fmt.Sprintf("  Net: %s\n\n", usd(net)))
	b.WriteString("<b>Spending Budget:</b>\n")
	b.WriteString(fmt.Sprintf("  Mode: %s (%s)\n", snap.Mode.Title(), pct(snap.Mode.Retention())))
	b.WriteString(fmt.Sprintf("  Available: %s\n", usd(snap.AvailableBudget)))
	b.WriteString(fmt.Sprintf("  Reserved: %s\n\n", usd(reserved)))
	b.WriteString("<b>Projections:</b>\n")
	b.WriteString(fmt.Sprintf("  Daily yield: %s\n", usd(snap.TotalDailyYield)))
	b.WriteString(fmt.Sprintf("  Weekly: %s\n", usd(snap.TotalDailyYield.Mul(decimal.NewFromInt(7)))))
	b.WriteString(fmt.Sprintf("  Monthly: %s\n", usd(snap.TotalDailyYield.Mul(decimal.NewFromInt(30)))))
	return b.String()
}

// FormatYieldDetails formats accrual details with the per-source breakdown.
func FormatYieldDetails(snap *model.LedgerSnapshot) string {
	var b strings.Builder
	b.WriteString("📈 <b>Yield Details</b>\n\n")
	b.WriteString(fmt.Sprintf("Total Accrued: %s\n", usd(snap.AccruedYieldUSD)))
	b.WriteString(fmt.Sprintf("Already Spent: %s\n", usd(snap.SpentFromYieldUSD)))
	b.WriteString(fmt.Sprintf("Net Available: %s\n\n", usd(snap.NetYield())))
	b.WriteString(fmt.Sprintf("Daily Rate: %s\n", usd(snap.TotalDailyYield)))
	b.WriteString(fmt.Sprintf("Monthly: %s\n\n", usd(snap.TotalDailyYield.Mul(decimal.NewFromInt(30)))))
	b.WriteString("<b>Sources:</b>\n")
	if len(snap.Sources) == 0 {
		b.WriteString("  (none configured)\n")
	}
	for _, s := range snap.Sources {
		b.WriteString(fmt.Sprintf("• %s: %s @ %s%%\n", s.Name, usd(s.PrincipalUSD), s.AnnualRatePct.StringFixed(2)))
	}
	return b.String()
}

// FormatHistory formats recent transaction records, newest first.
func FormatHistory(txs []model.Transaction) string {
	if len(txs) == 0 {
		return "📭 No transactions recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent Transactions</b>\n\n")
	for _, tx := range txs {
		emoji := "📥"
		if tx.Direction == model.DirectionOut {
			if tx.Status == model.StatusWithinBudget {
				emoji = "✅"
			} else {
				emoji = "⚠️"
			}
		}
		b.WriteString(fmt.Sprintf("%s %s %s - %s\n",
			emoji, usd(tx.AmountUSD), tx.Asset, tx.Timestamp.Format("01/02 15:04")))
	}
	return b.String()
}

// FormatTransactionAlert formats the push alert for a detected spend.
func FormatTransactionAlert(tx *model.Transaction, dec ledger.Decision, budgetNow decimal.Decimal) string {
	var b strings.Builder
	if dec.WithinBudget {
		b.WriteString("✅ <b>Transaction Detected</b>\n\n")
	} else {
		b.WriteString("🚨 <b>Transaction Detected</b>\n\n")
	}
	b.WriteString(fmt.Sprintf("Amount: %s %s\n", usd(tx.AmountUSD), tx.Asset))
	if dec.WithinBudget {
		b.WriteString(fmt.Sprintf("Status: spent from yield (%s remaining)\n", usd(dec.RemainingUSD)))
	} else {
		b.WriteString(fmt.Sprintf("Status: over budget by %s! This dips into principal.\n", usd(dec.OverageUSD)))
	}
	b.WriteString(fmt.Sprintf("Time: %s\n\n", tx.Timestamp.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Budget: %s remaining", usd(budgetNow)))
	return b.String()
}

// FormatSpendCheck formats the /spend pre-authorization reply. No spend is
// booked by the check itself.
func FormatSpendCheck(amount, available, dailyYield decimal.Decimal) string {
	if amount.LessThanOrEqual(available) {
		return fmt.Sprintf("✅ <b>%s APPROVED</b>\n\n"+
			"Within your yield budget.\n"+
			"Remaining after spend: %s\n\n"+
			"Use /transfer %s to move funds to your card.",
			usd(amount), usd(available.Sub(amount)), amount.StringFixed(2))
	}

	shortfall := amount.Sub(available)
	wait := "∞"
	if dailyYield.IsPositive() {
		wait = shortfall.Div(dailyYield).StringFixed(1)
	}
	return fmt.Sprintf("❌ <b>%s DENIED</b>\n\n"+
		"Exceeds yield budget by %s\n"+
		"Available now: %s\n\n"+
		"⏳ Wait %s days for enough yield",
		usd(amount), usd(shortfall), usd(available), wait)
}

// FormatTopup formats the /topup reply.
func FormatTopup(snap *model.LedgerSnapshot) string {
	reserve := decimal.NewFromInt(1).Sub(snap.Mode.Retention())
	return fmt.Sprintf("💳 <b>Card Top-up Available</b>\n\n"+
		"Yield earned: %s\n"+
		"Already spent: %s\n"+
		"Mode reserve: %s\n\n"+
		"✅ <b>Available to transfer: %s</b>\n\n"+
		"Use /transfer %s to move to your card",
		usd(snap.AccruedYieldUSD), usd(snap.SpentFromYieldUSD),
		pct(reserve), usd(snap.AvailableBudget), snap.AvailableBudget.StringFixed(2))
}

// FormatTransferReceipt formats a completed transfer confirmation.
func FormatTransferReceipt(amount decimal.Decimal, explorerURL string) string {
	var b strings.Builder
	b.WriteString("✅ <b>Transfer Complete!</b>\n\n")
	b.WriteString(fmt.Sprintf("Sent: %s USDC\n", usd(amount)))
	if explorerURL != "" {
		b.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">View on explorer</a>\n", explorerURL))
	}
	b.WriteString("\nYour card is ready to use! 💳")
	return b.String()
}

// FormatModeChanged formats the /mode confirmation.
func FormatModeChanged(mode model.SpendingMode, budget decimal.Decimal) string {
	return fmt.Sprintf("✅ Mode changed to <b>%s</b> (%s)\n\nAvailable budget: %s",
		mode.Title(), pct(mode.Retention()), usd(budget))
}

// FormatHelp lists the operator commands.
func FormatHelp() string {
	return `🛡️ <b>Yield Guardian Commands</b>

<b>💰 Spending:</b>
/spend &lt;amount&gt; - Check if amount is within budget
/topup - See available yield for card
/transfer &lt;amount&gt; - Send yield to your card

<b>📊 Status:</b>
/status - Overview of balances &amp; budget
/budget - Detailed budget breakdown
/yield - Yield accrual details
/history - Recent transactions

<b>⚙️ Settings:</b>
/mode [name] - Change spending mode
/help - This message

<b>Spending Modes:</b>
🐢 conservative - Spend 50% of yield
⚖️ balanced - Spend 80% of yield
🚀 growth - Spend 30% of yield`
}
