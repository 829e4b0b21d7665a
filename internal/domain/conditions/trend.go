package conditions

import (
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const trendMinBars = 20

// Trend: estructura direccional intacta. Long si la dirección dominante es
// alcista y el retroceso del último tramo es ≤ RetraceMaxTrend; short en espejo.
// Un retroceso por encima de RetraceRange se trata como rango.
func Trend(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	if !minLen(s, trendMinBars) {
		return out
	}
	lookback := t.SwingLookback * 3
	dir := structural.DominantDirection(s, min(lookback, s.Len()-1), t.SwingLeft, t.SwingRight)
	if dir == structural.DirNone {
		return out
	}

	sh, okH := structural.RecentSwingHigh(s, lookback, t.SwingLeft, t.SwingRight)
	sl, okL := structural.RecentSwingLow(s, lookback, t.SwingLeft, t.SwingRight)
	if !okH || !okL || sh-sl <= 0 {
		return out
	}

	depth, ok := structural.RetracementDepth(sh, sl, s.LastClose(), dir)
	if !ok || depth > t.RetraceRange {
		return out
	}
	if depth <= t.RetraceMaxTrend {
		out.Long = dir == structural.DirUp
		out.Short = dir == structural.DirDown
	}
	return out
}
