package scanner

// loader.go — carga concurrente de series con rate limit sobre la fuente.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/ports"
	"golang.org/x/time/rate"
)

type loaded struct {
	symbol string
	series domain.Series
	err    error
}

// loadSeriesConcurrent carga la serie de cada símbolo con un pool de workers.
// Cada carga espera turno en el limiter. El resultado conserva el orden de
// symbols; los símbolos no cargados llevan err != nil.
func loadSeriesConcurrent(
	ctx context.Context,
	source ports.BarSource,
	limiter *rate.Limiter,
	symbols []string,
	workers int,
) []loaded {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	workers = min(workers, max(len(symbols), 1))

	out := make([]loaded, len(symbols))
	workCh := make(chan int, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				sym := symbols[idx]
				out[idx].symbol = sym
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						out[idx].err = err
						continue
					}
				}
				s, err := source.LoadSeries(ctx, sym)
				if err != nil {
					slog.Debug("load series failed", "symbol", sym, "err", err)
					out[idx].err = err
					continue
				}
				out[idx].series = s
			}
		}()
	}

	for i := range symbols {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	return out
}
