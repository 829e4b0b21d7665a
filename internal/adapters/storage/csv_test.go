package storage_test

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/adapters/storage"
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_TimedRFC3339(t *testing.T) {
	in := "Time,Open,High,Low,Close\n" +
		"2024-03-04T00:00:00Z,10,12,9,11\n" +
		"2024-03-04T00:15:00Z,11,13,10,12\n"

	s, err := storage.ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.True(t, s.Timed)
	assert.True(t, s.Bars[1].Time.Equal(t0.Add(15*time.Minute)))
	assert.InDelta(t, 13.0, s.Bars[1].High, 1e-9)
}

func TestParseCSV_UnixSecondsAndMillis(t *testing.T) {
	sec := t0.Unix()
	in := "timestamp,open,high,low,close\n" +
		"1709510400,1,2,0.5,1.5\n" +
		"1709511300000,1,2,0.5,1.5\n"
	require.Equal(t, int64(1709510400), sec)

	s, err := storage.ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.True(t, s.Bars[0].Time.Equal(t0))
	assert.True(t, s.Bars[1].Time.Equal(t0.Add(15*time.Minute)))
}

func TestParseCSV_NoTimeColumnIsUntimed(t *testing.T) {
	s, err := storage.ParseCSV(strings.NewReader("open,high,low,close\n1,2,0.5,1.5\n"))
	require.NoError(t, err)
	assert.False(t, s.Timed)
	assert.Equal(t, 1, s.Len())
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, err := storage.ParseCSV(strings.NewReader("time,open,high,close\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low")
}

func TestParseCSV_NonNumeric(t *testing.T) {
	_, err := storage.ParseCSV(strings.NewReader("open,high,low,close\n1,abc,0.5,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"high" is not numeric`)
}

func TestParseCSV_EmptyCellIsNaN(t *testing.T) {
	s, err := storage.ParseCSV(strings.NewReader("open,high,low,close\n1,2,,1\n"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Bars[0].Low))
	assert.Equal(t, "NaN in OHLC", domain.ValidateSeries(s))
}

func TestWriteCSV_ReadableByParseCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, storage.WriteCSV(&buf, domain.NewSeries(makeBars(3, 50))))
	assert.True(t, strings.HasPrefix(buf.String(), "time,open,high,low,close\n"))

	s, err := storage.ParseCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.InDelta(t, 52.0, s.Bars[2].Open, 1e-9)
}

func TestCSVSource_SymbolsAndLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("XAUUSD.csv", "time,open,high,low,close\n2024-03-04 00:00:00,2000,2002,1999,2001\n")
	write("EURUSD.csv", "open,high,low,close\n1.08,1.09,1.07,1.085\n")
	write("notes.txt", "ignored")

	src := storage.NewCSVSource(dir)
	syms, err := src.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD", "XAUUSD"}, syms)

	s, err := src.LoadSeries(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.True(t, s.Timed)
	assert.True(t, s.Bars[0].Time.Equal(t0))

	_, err = src.LoadSeries(context.Background(), "MISSING")
	assert.Error(t, err)
}
