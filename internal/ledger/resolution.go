package ledger

import "time"

// ShouldFreeze diz se a mudança prev -> next é a primeira resolução de uma
// aposta de casa em USD. prev nil significa criação.
// Uma aposta que já tem cotação congelada nunca congela de novo, mesmo que
// volte para pendente e seja resolvida outra vez.
func ShouldFreeze(prev *Wager, next Wager, house House) bool {
	if house.Currency != USD {
		return false
	}
	if !next.Outcome.Resolved() {
		return false
	}
	if next.FrozenRate != nil || next.ResolvedAt != nil {
		return false
	}
	return prev == nil || prev.Outcome == Pending
}

// Freeze grava a cotação atual e o instante da resolução na aposta.
func Freeze(w Wager, rate float64, at time.Time) Wager {
	r := rate
	ts := at.UTC().Format(time.RFC3339)
	w.FrozenRate = &r
	w.ResolvedAt = &ts
	return w
}
