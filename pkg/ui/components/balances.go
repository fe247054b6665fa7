package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// BalanceRow is one account's holding of one token.
type BalanceRow struct {
	Account string
	Token   string
	Amount  decimal.Decimal
}

// BalancesView renders rows as a table, dimming zero balances.
func BalancesView(rows []BalanceRow) string {
	if len(rows) == 0 {
		return "No balances"
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString("┌──────────┬────────────────────┬────────────────┐\n")
	b.WriteString("│ Account  │ Token              │         Amount │\n")
	b.WriteString("├──────────┼────────────────────┼────────────────┤\n")
	for _, row := range rows {
		amount := fmt.Sprintf("%14s", row.Amount.StringFixed(4))
		if row.Amount.IsZero() {
			amount = muted.Render(amount)
		}
		fmt.Fprintf(&b, "│ %-8s │ %-18s │ %s │\n", truncate(row.Account, 8), truncate(row.Token, 18), amount)
	}
	b.WriteString("└──────────┴────────────────────┴────────────────┘")
	return b.String()
}
