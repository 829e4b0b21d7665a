package structural

import (
	"math"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	talib "github.com/markcheno/go-talib"
)

// ATR devuelve la media simple del true range de las últimas period velas.
// true range = máx(high−low, |high−prevClose|, |low−prevClose|).
// ok es false si hay menos de period+1 velas.
func ATR(s domain.Series, period int) (float64, bool) {
	if period <= 0 || s.Len() < period+1 {
		return 0, false
	}
	tr := talib.TRange(s.Highs(), s.Lows(), s.Closes())
	sma := talib.Sma(tr, period)
	v := sma[len(sma)-1]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
