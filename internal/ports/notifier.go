package ports

import (
	"context"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

// Notifier presenta las señales de un ciclo al usuario.
type Notifier interface {
	// Notify muestra las señales ordenadas por |bias|.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, signals []domain.Signal) error
}
