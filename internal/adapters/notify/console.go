package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out    io.Writer
	table  bool
	detail bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, detail bool) *Console {
	return &Console{out: os.Stdout, table: table, detail: detail}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table, detail bool) *Console {
	return &Console{out: w, table: table, detail: detail}
}

// Notify imprime las señales del ciclo en el modo configurado.
// Se asume que vienen ordenadas por |bias| descendente.
func (c *Console) Notify(_ context.Context, signals []domain.Signal) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no symbols scored\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(signals)
	} else {
		c.printCompact(signals)
	}

	if c.detail {
		c.printDetail(signals)
	}
	return nil
}

// printCompact imprime una línea con el resumen y las primeras señales con sesgo.
func (c *Console) printCompact(signals []domain.Signal) {
	now := time.Now().Format("15:04:05")
	longs, shorts, failed := countAlerts(signals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d symbols → L:%d S:%d err:%d", now, len(signals), longs, shorts, failed)

	shown := 0
	for _, sig := range signals {
		if shown >= 4 {
			break
		}
		if !sig.Record.Valid() || sig.Record.Bias == 0 {
			continue
		}
		fmt.Fprintf(&sb, " | %s %d/%d %+d%s",
			sig.Symbol, sig.Record.LongScore, sig.Record.ShortScore, sig.Record.Bias, alertMark(sig))
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa del ciclo.
func (c *Console) printFull(signals []domain.Signal) {
	now := time.Now().Format("15:04:05")
	longs, shorts, failed := countAlerts(signals)

	fmt.Fprintf(c.out, "\n[%s] %d symbols: alerts L:%d S:%d, errors:%d\n",
		now, len(signals), longs, shorts, failed)

	table := tablewriter.NewWriter(c.out)
	header := []any{"#", "Symbol", "Bars", "Close", "Long", "Short", "Bias", "Alert"}
	for _, n := range domain.ConditionNames() {
		header = append(header, shortName(n))
	}
	table.Header(header...)

	for i, sig := range signals {
		row := []any{
			fmt.Sprintf("%d", i+1),
			sig.Symbol,
			fmt.Sprintf("%d", sig.Bars),
			fmt.Sprintf("%.5g", sig.LastClose),
		}
		if !sig.Record.Valid() {
			row = append(row, "-", "-", "-", "ERR")
			for range domain.ConditionNames() {
				row = append(row, "")
			}
			table.Append(row...)
			continue
		}
		row = append(row,
			fmt.Sprintf("%d", sig.Record.LongScore),
			fmt.Sprintf("%d", sig.Record.ShortScore),
			fmt.Sprintf("%+d", sig.Record.Bias),
			strings.ToUpper(sig.AlertSide()),
		)
		for _, n := range domain.ConditionNames() {
			row = append(row, flags(sig.Record.LongConditions[n], sig.Record.ShortConditions[n]))
		}
		table.Append(row...)
	}

	table.Render()
	fmt.Fprintln(c.out, "  TR=trend IB=impulse_break SH=stop_hunt SM=stop_money ZN=zone FB=fib SS=session")
	fmt.Fprintln(c.out, "  L/S = condición cumplida para long/short")
}

// printDetail imprime el desglose de los 3 primeros símbolos.
func (c *Console) printDetail(signals []domain.Signal) {
	top := signals
	if len(top) > 3 {
		top = signals[:3]
	}

	fmt.Fprintln(c.out, "=== DETAIL ===")
	for i, sig := range top {
		fmt.Fprintf(c.out, "\n--- #%d: %s  [%s] ---\n", i+1, sig.Symbol, sig.Record.Direction())
		if !sig.Record.Valid() {
			fmt.Fprintf(c.out, "  error: %s\n", sig.Record.Error)
			continue
		}
		fmt.Fprintf(c.out, "  bars=%d close=%.5g scanned=%s\n",
			sig.Bars, sig.LastClose, sig.ScannedAt.Format(time.RFC3339))
		for _, n := range domain.ConditionNames() {
			fmt.Fprintf(c.out, "  %-14s long=%-5t short=%t\n",
				n, sig.Record.LongConditions[n], sig.Record.ShortConditions[n])
		}
		fmt.Fprintf(c.out, "  >>> long %d  short %d  bias %+d\n",
			sig.Record.LongScore, sig.Record.ShortScore, sig.Record.Bias)
	}
	fmt.Fprintln(c.out)
}

// PrintRecord imprime un único ScoreRecord (modo de una sola serie).
func (c *Console) PrintRecord(symbol string, rec domain.ScoreRecord) {
	if !rec.Valid() {
		fmt.Fprintf(c.out, "%s: error: %s\n", symbol, rec.Error)
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Condition", "Long", "Short")
	for _, n := range domain.ConditionNames() {
		table.Append(n, yesNo(rec.LongConditions[n]), yesNo(rec.ShortConditions[n]))
	}
	table.Render()
	fmt.Fprintf(c.out, "%s: long %d short %d bias %+d alert_long=%t alert_short=%t\n",
		symbol, rec.LongScore, rec.ShortScore, rec.Bias, rec.AlertLong, rec.AlertShort)
}

// --- helpers ---

func countAlerts(signals []domain.Signal) (longs, shorts, failed int) {
	for _, s := range signals {
		if !s.Record.Valid() {
			failed++
			continue
		}
		if s.Record.AlertLong {
			longs++
		}
		if s.Record.AlertShort {
			shorts++
		}
	}
	return
}

func alertMark(sig domain.Signal) string {
	if side := sig.AlertSide(); side != "" {
		return " !" + strings.ToUpper(side)
	}
	return ""
}

var shortNames = map[string]string{
	domain.CondTrend:        "TR",
	domain.CondImpulseBreak: "IB",
	domain.CondStopHunt:     "SH",
	domain.CondStopMoney:    "SM",
	domain.CondZone:         "ZN",
	domain.CondFib:          "FB",
	domain.CondSession:      "SS",
}

func shortName(n string) string {
	if s, ok := shortNames[n]; ok {
		return s
	}
	return n
}

func flags(long, short bool) string {
	switch {
	case long && short:
		return "LS"
	case long:
		return "L"
	case short:
		return "S"
	}
	return "."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
