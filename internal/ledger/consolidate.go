package ledger

import "github.com/shopspring/decimal"

// Consolidation é a visão "Balance Total" em moeda local.
//
// Duas políticas de câmbio convivem e nunca se misturam:
//   - LiveBalance usa a cotação atual para tudo que está em USD (depósitos,
//     saques e lucro realizado): é o dinheiro disponível hoje.
//   - HistoricalProfit converte o lucro de cada aposta USD resolvida pela sua
//     própria cotação congelada (ou a atual, se não houver): serve só para
//     análise de desempenho.
type Consolidation struct {
	Rate decimal.Decimal `json:"tipoCambio"`

	LocalBalance      decimal.Decimal `json:"balancePEN"`
	USDBalance        decimal.Decimal `json:"balanceUSD"`
	USDBalanceInLocal decimal.Decimal `json:"balanceUSDenPEN"`
	LiveBalance       decimal.Decimal `json:"balanceTotalPEN"`

	LocalProfit                decimal.Decimal `json:"beneficioPEN"`
	USDProfit                  decimal.Decimal `json:"beneficioUSD"`
	HistoricalUSDProfitInLocal decimal.Decimal `json:"beneficioUSDenPEN"`
	HistoricalProfit           decimal.Decimal `json:"gananciasHistoricas"`
}

// Consolidate calcula a visão consolidada com a cotação USD→local informada.
func Consolidate(s Snapshot, rate float64) Consolidation {
	current := decimal.NewFromFloat(rate)
	c := Consolidation{Rate: current}

	for _, h := range s.Houses {
		t := houseTotals(s, h.ID)
		if h.Currency != USD {
			c.LocalBalance = c.LocalBalance.Add(t.Balance)
			c.LocalProfit = c.LocalProfit.Add(t.NetProfit)
			continue
		}

		c.USDBalance = c.USDBalance.Add(t.Balance)
		c.USDProfit = c.USDProfit.Add(t.NetProfit)

		for _, w := range s.Wagers {
			if w.HouseID != h.ID || !w.Outcome.Resolved() {
				continue
			}
			r := current
			if w.FrozenRate != nil {
				r = decimal.NewFromFloat(*w.FrozenRate)
			}
			c.HistoricalUSDProfitInLocal = c.HistoricalUSDProfitInLocal.Add(w.Profit().Mul(r))
		}
	}

	c.USDBalanceInLocal = c.USDBalance.Mul(current)
	c.LiveBalance = c.LocalBalance.Add(c.USDBalanceInLocal)
	c.HistoricalProfit = c.LocalProfit.Add(c.HistoricalUSDProfitInLocal)
	return c
}
