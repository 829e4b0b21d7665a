package ports

import (
	"context"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

// BarSource obtiene series OHLC ya cargadas localmente (CSV, SQLite).
// La descarga en vivo de datos de mercado queda fuera de este repositorio.
type BarSource interface {
	// Symbols devuelve los símbolos disponibles, ordenados.
	Symbols(ctx context.Context) ([]string, error)

	// LoadSeries devuelve la serie completa de un símbolo en orden cronológico.
	LoadSeries(ctx context.Context, symbol string) (domain.Series, error)
}
