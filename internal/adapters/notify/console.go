package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

type counterLabel struct{ key, label string }

// Contadores de la línea compacta, en orden.
var (
	buyKeys = []counterLabel{
		{"buy_orders_attempted", "buy"},
		{"buy_orders_success", "ok"},
		{"buy_orders_failed", "fail"},
	}
	sellKeys = []counterLabel{
		{"sell_orders_considered", "sell"},
		{"sell_orders_success", "ok"},
		{"sell_orders_blocked", "blk"},
		{"sell_orders_failed", "fail"},
	}
)

// Console implementa ports.CycleReporter.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// ReportCycle imprime el resumen del ciclo en el modo configurado.
func (c *Console) ReportCycle(_ context.Context, s domain.CycleSummary) error {
	if c.table {
		c.printCycleTable(s)
	} else {
		c.printCompact(s)
	}
	return nil
}

// printCompact imprime el ciclo en una sola línea.
func (c *Console) printCompact(s domain.CycleSummary) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] cycle #%d %s", s.StartedAt.Local().Format("15:04:05"), s.Index, s.Duration.Round(time.Millisecond))

	for _, group := range [][]counterLabel{buyKeys, sellKeys} {
		sb.WriteString(" |")
		for _, k := range group {
			fmt.Fprintf(&sb, " %s:%s", k.label, formatCount(s.Counts[k.key]))
		}
	}
	if s.Failed() {
		fmt.Fprintf(&sb, " | ERROR %s", s.Err)
	}
	fmt.Fprintln(c.out, sb.String())
}

// printCycleTable imprime todos los contadores del ciclo.
func (c *Console) printCycleTable(s domain.CycleSummary) {
	fmt.Fprintf(c.out, "\n[%s] cycle #%d (%s) took %s\n",
		s.StartedAt.Local().Format("15:04:05"), s.Index, shortID(s.ID), s.Duration.Round(time.Millisecond))

	table := tablewriter.NewWriter(c.out)
	table.Header("Counter", "Value")
	for _, k := range s.CountKeys() {
		table.Append(k, formatCount(s.Counts[k]))
	}
	table.Render()

	if s.Failed() {
		fmt.Fprintf(c.out, "  ⚠ cycle error: %s\n", s.Err)
	}
}

// PrintJournal renders the -report view: recent cycles then recent orders.
func (c *Console) PrintJournal(cycles []domain.CycleSummary, orders []domain.JournalOrder) {
	fmt.Fprintf(c.out, "\n=== CYCLES (last %d) ===\n", len(cycles))
	if len(cycles) == 0 {
		fmt.Fprintln(c.out, "  no cycles recorded")
	} else {
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "ID", "Started", "Duration", "Buys", "Sells", "Error")
		for _, s := range cycles {
			buys := fmt.Sprintf("%s/%s", formatCount(s.Counts["buy_orders_success"]), formatCount(s.Counts["buy_orders_attempted"]))
			sells := fmt.Sprintf("%s/%s", formatCount(s.Counts["sell_orders_success"]), formatCount(s.Counts["sell_orders_considered"]))
			table.Append(
				strconv.Itoa(s.Index),
				shortID(s.ID),
				s.StartedAt.Local().Format("2006-01-02 15:04:05"),
				s.Duration.Round(time.Millisecond).String(),
				buys,
				sells,
				truncate(s.Err, 40),
			)
		}
		table.Render()
	}

	fmt.Fprintf(c.out, "\n=== ORDERS (%d) ===\n", len(orders))
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "  no orders recorded")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Placed", "Order", "Market", "Token", "Side", "Price", "Quote", "Base")
	for _, o := range orders {
		table.Append(
			o.PlacedAt.Local().Format("01-02 15:04:05"),
			truncate(o.OrderID, 16),
			strconv.FormatInt(o.MarketID, 10),
			truncate(o.TokenID, 14),
			strings.ToUpper(string(o.Side)),
			o.Price,
			o.QuoteAmount,
			o.BaseAmount,
		)
	}
	table.Render()
}

func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
