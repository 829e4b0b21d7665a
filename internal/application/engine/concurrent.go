package engine

// concurrent.go — worker pool para puntuar muchas series en paralelo.
// Cada llamada a Score es pura, así que los workers no comparten estado.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

// Job es una serie a puntuar identificada por símbolo.
type Job struct {
	Symbol        string
	Series        domain.Series
	NativeMinutes int
}

// JobResult es el ScoreRecord de un Job.
type JobResult struct {
	Symbol string
	Record domain.ScoreRecord
}

// ScoreBatch puntúa todos los jobs en paralelo y devuelve los resultados en el
// mismo orden que la entrada. Si workers <= 0 usa runtime.NumCPU().
// Si el contexto se cancela, los jobs no iniciados se omiten.
func (e *Engine) ScoreBatch(ctx context.Context, jobs []Job, workers int) []JobResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(jobs), 1))

	type work struct {
		idx int
		job Job
	}

	workCh := make(chan work, len(jobs))
	out := make([]JobResult, len(jobs))
	done := make([]bool, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if ctx.Err() != nil {
					continue
				}
				out[w.idx] = JobResult{Symbol: w.job.Symbol, Record: e.Score(w.job.Series, w.job.NativeMinutes)}
				done[w.idx] = true
			}
		}()
	}

	for i, j := range jobs {
		workCh <- work{idx: i, job: j}
	}
	close(workCh)
	wg.Wait()

	results := make([]JobResult, 0, len(jobs))
	for i := range out {
		if done[i] {
			results = append(results, out[i])
		}
	}

	slog.Debug("batch scoring complete",
		"jobs", len(jobs),
		"scored", len(results),
		"workers", workers,
	)
	return results
}
