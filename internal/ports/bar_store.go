package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

// BarStore es una caché local de velas. Solo guarda datos de entrada;
// los ScoreRecord no se persisten.
type BarStore interface {
	BarSource

	// SaveBars inserta o reemplaza velas de un símbolo (clave: símbolo + timestamp).
	SaveBars(ctx context.Context, symbol string, bars []domain.Bar) error

	// LoadRange devuelve las velas de un símbolo en [from, to].
	LoadRange(ctx context.Context, symbol string, from, to time.Time) (domain.Series, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
