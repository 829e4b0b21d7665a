package storage

// csv.go — lectura de velas desde CSV.
//
// Formato: cabecera con open/high/low/close (sin distinguir mayúsculas) y,
// opcionalmente, una columna de tiempo (time, timestamp, date o datetime).
// Sin columna de tiempo la serie queda sin índice temporal (Timed=false).
// Celdas vacías se leen como NaN y las rechaza la validación del engine.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

var timeColumns = []string{"time", "timestamp", "date", "datetime"}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// ParseCSV decodifica una serie OHLC desde r.
func ParseCSV(r io.Reader) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Series{}, nil
		}
		return domain.Series{}, fmt.Errorf("storage.ParseCSV: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range []string{"open", "high", "low", "close"} {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return domain.Series{}, fmt.Errorf("storage.ParseCSV: missing columns: %s", strings.Join(missing, ", "))
	}
	timeCol := -1
	for _, c := range timeColumns {
		if i, ok := cols[c]; ok {
			timeCol = i
			break
		}
	}

	var bars []domain.Bar
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Series{}, fmt.Errorf("storage.ParseCSV: row %d: %w", row, err)
		}

		var b domain.Bar
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
		} {
			v, err := parsePrice(rec[cols[f.name]])
			if err != nil {
				return domain.Series{}, fmt.Errorf("storage.ParseCSV: column %q is not numeric at row %d: %w", f.name, row, err)
			}
			*f.dst = v
		}
		if timeCol >= 0 {
			ts, err := parseTime(rec[timeCol])
			if err != nil {
				return domain.Series{}, fmt.Errorf("storage.ParseCSV: row %d: %w", row, err)
			}
			b.Time = ts
		}
		bars = append(bars, b)
	}
	return domain.Series{Bars: bars, Timed: timeCol >= 0}, nil
}

func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}

// parseTime acepta los layouts de timeLayouts (sin zona = UTC) o un entero unix
// en segundos o milisegundos.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// CSVSource implementa ports.BarSource sobre un directorio con un fichero
// <SÍMBOLO>.csv por símbolo.
type CSVSource struct {
	dir string
}

// NewCSVSource crea una fuente que lee de dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Symbols devuelve los nombres de fichero .csv del directorio, sin extensión.
func (c *CSVSource) Symbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("storage.CSVSource.Symbols: read dir %q: %w", c.dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(out)
	return out, nil
}

// LoadSeries lee <dir>/<symbol>.csv.
func (c *CSVSource) LoadSeries(_ context.Context, symbol string) (domain.Series, error) {
	path := filepath.Join(c.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("storage.CSVSource.LoadSeries: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := ParseCSV(f)
	if err != nil {
		return domain.Series{}, fmt.Errorf("storage.CSVSource.LoadSeries: %s: %w", symbol, err)
	}
	return s, nil
}

// WriteCSV escribe la serie con cabecera time,open,high,low,close (RFC3339 UTC).
func WriteCSV(w io.Writer, s domain.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close"}); err != nil {
		return fmt.Errorf("storage.WriteCSV: header: %w", err)
	}
	for _, b := range s.Bars {
		if err := cw.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			formatF(b.Open), formatF(b.High), formatF(b.Low), formatF(b.Close),
		}); err != nil {
			return fmt.Errorf("storage.WriteCSV: row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
