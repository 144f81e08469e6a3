package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderConsole formats the daily summary as rounded-style tables.
func RenderConsole(s Summary) string {
	out := fmt.Sprintf("Daily Summary %s\n", s.Date.Format("2006-01-02"))
	out += renderOverview(s)
	if len(s.Decisions) > 0 {
		out += "\nDecisions\n" + renderDecisions(s)
	}
	if len(s.Closed) > 0 {
		out += "\nClosed Positions\n" + renderClosed(s)
	}
	return out
}

func renderOverview(s Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Signals evaluated", len(s.Signals)},
		{"Entry decisions", len(s.Decisions)},
		{"Positions closed", len(s.Closed)},
		{"Realized P&L", fmt.Sprintf("$%.2f", s.RealizedPnL)},
		{"Open positions", s.OpenCount},
		{"Account equity", fmt.Sprintf("$%.2f", s.Equity)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 14, Align: text.AlignRight},
	})
	return t.Render() + "\n"
}

func renderDecisions(s Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Symbol", "Contract", "Outcome", "Qty"})
	for _, d := range s.Decisions {
		outcome := "approved"
		if !d.Approved {
			outcome = "veto: " + d.Veto
		}
		t.AppendRow(table.Row{d.Time.Format("15:04"), d.Symbol, d.Contract, outcome, d.Qty})
	}
	return t.Render() + "\n"
}

func renderClosed(s Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Underlying", "Contract", "Qty", "Entry", "Exit", "Reason", "P&L"})
	for _, p := range s.Closed {
		t.AppendRow(table.Row{
			p.Underlying,
			p.Contract.Symbol,
			p.Qty,
			fmt.Sprintf("%.2f", p.EntryPrice),
			fmt.Sprintf("%.2f", p.ExitPrice),
			string(p.ExitReason),
			fmt.Sprintf("$%.2f", p.RealizedPnL),
		})
	}
	return t.Render() + "\n"
}
