// Package components provides reusable terminal components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// HopRow is one hop of a quoted route.
type HopRow struct {
	Market    string
	Direction string
	TokenIn   string
	TokenOut  string
	SwapOut   decimal.Decimal
	MintOut   decimal.Decimal
	Choice    string
}

// RouteComponent renders a quoted route hop by hop.
type RouteComponent struct {
	rows      []HopRow
	amountIn  decimal.Decimal
	amountOut decimal.Decimal
}

// NewRouteComponent creates a route view for amountIn yielding amountOut.
func NewRouteComponent(amountIn, amountOut decimal.Decimal, rows []HopRow) *RouteComponent {
	return &RouteComponent{rows: rows, amountIn: amountIn, amountOut: amountOut}
}

// View renders the route table.
func (r *RouteComponent) View() string {
	if len(r.rows) == 0 {
		return "Empty route"
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	swapStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	mintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("ROUTE %s -> %s (%d hops)", r.amountIn.String(), r.amountOut.String(), len(r.rows))))
	b.WriteString("\n")
	b.WriteString("┌───┬────────────────────┬──────┬──────────┬──────────┬────────────┬────────────┬──────┐\n")
	b.WriteString("│ # │ Market             │ Dir  │ In       │ Out      │ Swap out   │ Mint out   │ Via  │\n")
	b.WriteString("├───┼────────────────────┼──────┼──────────┼──────────┼────────────┼────────────┼──────┤\n")

	for i, row := range r.rows {
		style := mintStyle
		if row.Choice == "SWAP" {
			style = swapStyle
		}
		fmt.Fprintf(&b, "│%2d │ %-18s │ %-4s │ %-8s │ %-8s │%11s │%11s │ %s │\n",
			i,
			truncate(row.Market, 18),
			row.Direction,
			truncate(row.TokenIn, 8),
			truncate(row.TokenOut, 8),
			row.SwapOut.StringFixed(4),
			row.MintOut.StringFixed(4),
			style.Render(fmt.Sprintf("%-4s", row.Choice)),
		)
	}

	b.WriteString("└───┴────────────────────┴──────┴──────────┴──────────┴────────────┴────────────┴──────┘")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
