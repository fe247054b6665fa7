package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ExecutionSummary is the outcome of one routed trade.
type ExecutionSummary struct {
	ID        string
	State     string
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal
	Duration  time.Duration
	FailedHop int
	Error     string
}

// ExecutionView renders the summary as key/value lines.
func ExecutionView(e ExecutionSummary) string {
	settled := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	reverted := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	state := settled.Render("● " + e.State)
	if e.State != "SETTLED" {
		state = reverted.Render("○ " + e.State)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "├─ id:       %s\n", e.ID)
	fmt.Fprintf(&b, "├─ state:    %s\n", state)
	fmt.Fprintf(&b, "├─ in:       %s\n", e.AmountIn.String())
	if e.State == "SETTLED" {
		fmt.Fprintf(&b, "├─ out:      %s\n", e.AmountOut.String())
	}
	if e.FailedHop >= 0 {
		fmt.Fprintf(&b, "├─ failed:   hop %d\n", e.FailedHop)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, "├─ error:    %s\n", e.Error)
	}
	fmt.Fprintf(&b, "└─ took:     %s", e.Duration.Round(time.Microsecond))
	return b.String()
}
