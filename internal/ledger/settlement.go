package ledger

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// Settle calcula o resultado financeiro líquido de uma aposta.
// Pendente não realiza nada; meia aposta liquida só metade do stake.
func Settle(stake, odds float64, outcome Outcome) decimal.Decimal {
	s := decimal.NewFromFloat(stake)
	o := decimal.NewFromFloat(odds)

	switch outcome {
	case Won:
		return s.Mul(o).Sub(s)
	case Lost:
		return s.Neg()
	case HalfWon:
		half := s.Div(two)
		return half.Mul(o).Sub(half)
	case HalfLost:
		return s.Div(two).Neg()
	default: // Push, Pending
		return decimal.Zero
	}
}

// Profit é Settle aplicado a uma aposta.
func (w Wager) Profit() decimal.Decimal { return Settle(w.Stake, w.Odds, w.Outcome) }
