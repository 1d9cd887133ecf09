package ledger

import "github.com/shopspring/decimal"

// Totals são os quatro números de uma casa (ou de um grupo de casas da mesma moeda).
type Totals struct {
	Balance        decimal.Decimal `json:"saldoActual"`
	NetProfit      decimal.Decimal `json:"beneficioNeto"` // só apostas
	TotalDeposited decimal.Decimal `json:"totalDepositado"`
	TotalWithdrawn decimal.Decimal `json:"totalRetirado"`
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		Balance:        t.Balance.Add(o.Balance),
		NetProfit:      t.NetProfit.Add(o.NetProfit),
		TotalDeposited: t.TotalDeposited.Add(o.TotalDeposited),
		TotalWithdrawn: t.TotalWithdrawn.Add(o.TotalWithdrawn),
	}
}

// HouseStats são os totais de uma casa na sua própria moeda.
type HouseStats struct {
	House House `json:"casa"`
	Totals
}

// StatsForHouse calcula saldo e lucro de uma casa, sem conversão de moeda.
// saldo = Σdepósitos − Σsaques + Σ Settle(apostas); pendentes contribuem 0.
func StatsForHouse(s Snapshot, houseID string) (HouseStats, bool) {
	h, ok := s.House(houseID)
	if !ok {
		return HouseStats{}, false
	}
	return HouseStats{House: h, Totals: houseTotals(s, houseID)}, true
}

// AllHouseStats devolve as estatísticas de todas as casas, na ordem do snapshot.
func AllHouseStats(s Snapshot) []HouseStats {
	out := make([]HouseStats, 0, len(s.Houses))
	for _, h := range s.Houses {
		out = append(out, HouseStats{House: h, Totals: houseTotals(s, h.ID)})
	}
	return out
}

// StatsTotal soma os totais por moeda. Moedas diferentes nunca se misturam aqui;
// a visão consolidada fica em Consolidate.
func StatsTotal(s Snapshot) map[Currency]Totals {
	out := map[Currency]Totals{}
	for _, hs := range AllHouseStats(s) {
		out[hs.House.Currency] = out[hs.House.Currency].add(hs.Totals)
	}
	return out
}

func houseTotals(s Snapshot, houseID string) Totals {
	var t Totals
	for _, d := range s.Deposits {
		if d.HouseID == houseID {
			t.TotalDeposited = t.TotalDeposited.Add(decimal.NewFromFloat(d.Amount))
		}
	}
	for _, w := range s.Withdrawals {
		if w.HouseID == houseID {
			t.TotalWithdrawn = t.TotalWithdrawn.Add(decimal.NewFromFloat(w.Amount))
		}
	}
	for _, w := range s.Wagers {
		if w.HouseID == houseID {
			t.NetProfit = t.NetProfit.Add(w.Profit())
		}
	}
	t.Balance = t.TotalDeposited.Sub(t.TotalWithdrawn).Add(t.NetProfit)
	return t
}
