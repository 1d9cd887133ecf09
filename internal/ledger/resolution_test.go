package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldFreeze(t *testing.T) {
	t.Parallel()

	usd := House{ID: "u", Currency: USD}
	pen := House{ID: "p", Currency: PEN}
	pending := Wager{ID: "w", Outcome: Pending}
	won := Wager{ID: "w", Outcome: Won}

	require.True(t, ShouldFreeze(&pending, won, usd), "pending -> won em USD congela")
	require.True(t, ShouldFreeze(nil, won, usd), "criada já resolvida em USD congela")
	require.False(t, ShouldFreeze(nil, pending, usd))
	require.False(t, ShouldFreeze(&pending, won, pen), "moeda local nunca congela")
	require.False(t, ShouldFreeze(&won, Wager{ID: "w", Outcome: Lost}, usd), "resolvida -> resolvida não congela")

	frozen := Freeze(won, 3.7, time.Now())
	back := frozen
	back.Outcome = Pending
	again := back
	again.Outcome = Lost
	require.False(t, ShouldFreeze(&back, again, usd), "segunda saída de pendente não recongela")
}

func TestFreeze(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Freeze(Wager{ID: "w", Outcome: Won}, 3.71, at)
	require.NotNil(t, w.FrozenRate)
	require.NotNil(t, w.ResolvedAt)
	require.Equal(t, 3.71, *w.FrozenRate)
	require.Equal(t, "2025-03-01T12:00:00Z", *w.ResolvedAt)
}

func TestWagerPatchApplyKeepsFrozenFields(t *testing.T) {
	t.Parallel()

	w := Freeze(Wager{ID: "w", Stake: 10, Odds: 2, Outcome: Won}, 3.5, time.Now())
	stake := 20.0
	out := WagerPatch{Stake: &stake}.Apply(w)
	require.Equal(t, 20.0, out.Stake)
	require.Equal(t, 3.5, *out.FrozenRate)
	require.True(t, WagerPatch{}.Empty())
}
