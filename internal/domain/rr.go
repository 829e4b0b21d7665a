package domain

import "github.com/shopspring/decimal"

// RiskReward calcula el ratio reward/risk de un setup entry/stop/target y lo
// valida contra minRR. Soporta long (stop < entry < target) y short
// (stop > entry > target); cualquier otra geometría devuelve (false, 0).
// La comparación con minRR es decimal exacta.
func RiskReward(entry, stop, target, minRR float64) (bool, float64) {
	if entry == stop || entry == target {
		return false, 0
	}
	e := decimal.NewFromFloat(entry)
	s := decimal.NewFromFloat(stop)
	t := decimal.NewFromFloat(target)

	var risk, reward decimal.Decimal
	switch {
	case entry > stop && entry < target:
		risk = e.Sub(s)
		reward = t.Sub(e)
	case entry < stop && entry > target:
		risk = s.Sub(e)
		reward = e.Sub(t)
	default:
		return false, 0
	}
	if !risk.IsPositive() || !reward.IsPositive() {
		return false, 0
	}
	ratio := reward.Div(risk)
	r, _ := ratio.Float64()
	return ratio.GreaterThanOrEqual(decimal.NewFromFloat(minRR)), r
}
