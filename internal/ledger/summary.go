package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ProfitPoint é um ponto da evolução do lucro acumulado (valor nominal).
type ProfitPoint struct {
	Date       string          `json:"fecha"`
	Cumulative decimal.Decimal `json:"beneficio"`
}

// Summary são os números do dashboard.
type Summary struct {
	Total     int                 `json:"total"`
	ByOutcome map[Outcome]int     `json:"porResultado"`
	ByKind    map[WagerKind]int   `json:"porTipo"`
	Evolution []ProfitPoint       `json:"evolucion"`
	Houses    []HouseStats        `json:"casas"`
	Totals    map[Currency]Totals `json:"totales"`
}

// Summarize conta apostas por resultado e tipo e monta a curva de lucro
// acumulado das apostas resolvidas, em ordem cronológica.
func Summarize(s Snapshot) Summary {
	sum := Summary{
		Total:     len(s.Wagers),
		ByOutcome: map[Outcome]int{},
		ByKind:    map[WagerKind]int{},
		Houses:    AllHouseStats(s),
		Totals:    StatsTotal(s),
	}

	var resolved []Wager
	for _, w := range s.Wagers {
		sum.ByOutcome[w.Outcome]++
		sum.ByKind[w.Kind]++
		if w.Outcome.Resolved() {
			resolved = append(resolved, w)
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool { return dateKey(resolved[i].Date).Before(dateKey(resolved[j].Date)) })

	acc := decimal.Zero
	for _, w := range resolved {
		acc = acc.Add(w.Profit())
		sum.Evolution = append(sum.Evolution, ProfitPoint{Date: w.Date, Cumulative: acc})
	}
	return sum
}
