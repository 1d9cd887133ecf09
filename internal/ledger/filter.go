package ledger

import "sort"

// WagerFilter seleciona apostas; campos vazios não filtram.
// From/To comparam a data como texto ISO, inclusive nas pontas.
type WagerFilter struct {
	HouseID string
	Kind    WagerKind
	Outcome Outcome
	From    string
	To      string
}

// FilterWagers aplica o filtro e ordena da mais recente para a mais antiga.
func FilterWagers(wagers []Wager, f WagerFilter) []Wager {
	out := make([]Wager, 0, len(wagers))
	for _, w := range wagers {
		if f.HouseID != "" && w.HouseID != f.HouseID {
			continue
		}
		if f.Kind != "" && w.Kind != f.Kind {
			continue
		}
		if f.Outcome != "" && w.Outcome != f.Outcome {
			continue
		}
		if f.From != "" && w.Date < f.From {
			continue
		}
		if f.To != "" && w.Date > f.To {
			continue
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool { return dateKey(out[i].Date).After(dateKey(out[j].Date)) })
	return out
}
