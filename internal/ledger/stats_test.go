package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStatsForHouseLocal(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Houses:   []House{{ID: "a", Name: "Casa A", Currency: PEN}},
		Deposits: []Deposit{{ID: "d1", HouseID: "a", Amount: 500, Date: "2025-01-01"}},
		Wagers: []Wager{
			{ID: "w1", HouseID: "a", Kind: KindSingle, Event: "X", Date: "2025-01-02", Selection: "1", Odds: 1.8, Stake: 100, Outcome: Won},
		},
	}

	st, ok := StatsForHouse(s, "a")
	require.True(t, ok)
	requireDec(t, "580", st.Balance)
	requireDec(t, "80", st.NetProfit)
	requireDec(t, "500", st.TotalDeposited)
	requireDec(t, "0", st.TotalWithdrawn)
}

func TestStatsForHouseIgnoresPendingAndOtherHouses(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Houses: []House{{ID: "a", Name: "A", Currency: PEN}, {ID: "b", Name: "B", Currency: PEN}},
		Deposits: []Deposit{
			{ID: "d1", HouseID: "a", Amount: 200, Date: "2025-01-01"},
			{ID: "d2", HouseID: "b", Amount: 999, Date: "2025-01-01"},
		},
		Withdrawals: []Withdrawal{{ID: "r1", HouseID: "a", Amount: 50, Date: "2025-01-03"}},
		Wagers: []Wager{
			{ID: "w1", HouseID: "a", Odds: 2, Stake: 20, Outcome: Pending},
			{ID: "w2", HouseID: "a", Odds: 3, Stake: 10, Outcome: Lost},
			{ID: "w3", HouseID: "b", Odds: 3, Stake: 10, Outcome: Won},
		},
	}

	st, ok := StatsForHouse(s, "a")
	require.True(t, ok)
	requireDec(t, "140", st.Balance)
	requireDec(t, "-10", st.NetProfit)
	requireDec(t, "50", st.TotalWithdrawn)

	_, ok = StatsForHouse(s, "missing")
	require.False(t, ok)
}

func TestStatsTotalGroupsByCurrency(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Houses: []House{
			{ID: "a", Name: "A", Currency: PEN},
			{ID: "b", Name: "B", Currency: PEN},
			{ID: "u", Name: "U", Currency: USD},
		},
		Deposits: []Deposit{
			{ID: "d1", HouseID: "a", Amount: 100, Date: "2025-01-01"},
			{ID: "d2", HouseID: "b", Amount: 50, Date: "2025-01-01"},
			{ID: "d3", HouseID: "u", Amount: 30, Date: "2025-01-01"},
		},
	}

	tot := StatsTotal(s)
	requireDec(t, "150", tot[PEN].Balance)
	requireDec(t, "30", tot[USD].Balance)
}

func TestConsolidateLiveBalanceIgnoresFrozenRate(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Houses:   []House{{ID: "u", Name: "Pinnacle", Currency: USD}},
		Deposits: []Deposit{{ID: "d", HouseID: "u", Amount: 100, Date: "2025-01-01"}},
		Wagers: []Wager{
			{ID: "w", HouseID: "u", Kind: KindSingle, Odds: 2, Stake: 10, Outcome: Won, FrozenRate: ptr(3.5)},
		},
	}

	c := Consolidate(s, 4.0)
	requireDec(t, "440", c.LiveBalance)
	requireDec(t, "110", c.USDBalance)
	requireDec(t, "35", c.HistoricalUSDProfitInLocal)
	requireDec(t, "35", c.HistoricalProfit)

	// a cotação atual não muda o relatório histórico
	c2 := Consolidate(s, 9.9)
	requireDec(t, "35", c2.HistoricalUSDProfitInLocal)
	requireDec(t, "1089", c2.LiveBalance)
}

func TestConsolidateMixedCurrencies(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Houses: []House{
			{ID: "a", Name: "Local", Currency: PEN},
			{ID: "u", Name: "Dolar", Currency: USD},
		},
		Deposits: []Deposit{
			{ID: "d1", HouseID: "a", Amount: 500, Date: "2025-01-01"},
			{ID: "d2", HouseID: "u", Amount: 100, Date: "2025-01-01"},
		},
		Withdrawals: []Withdrawal{{ID: "r", HouseID: "u", Amount: 20, Date: "2025-01-05"}},
		Wagers: []Wager{
			{ID: "w1", HouseID: "a", Odds: 1.8, Stake: 100, Outcome: Won},
			{ID: "w2", HouseID: "u", Odds: 2, Stake: 10, Outcome: Won},                        // sem cotação congelada: usa a atual
			{ID: "w3", HouseID: "u", Odds: 3, Stake: 10, Outcome: Lost, FrozenRate: ptr(3.6)}, // -10 * 3.6
			{ID: "w4", HouseID: "u", Odds: 3, Stake: 10, Outcome: Pending},
		},
	}

	c := Consolidate(s, 3.8)
	requireDec(t, "580", c.LocalBalance)
	requireDec(t, "80", c.USDBalance)
	requireDec(t, "304", c.USDBalanceInLocal)
	requireDec(t, "884", c.LiveBalance)
	requireDec(t, "80", c.LocalProfit)
	requireDec(t, "0", c.USDProfit)
	requireDec(t, "2", c.HistoricalUSDProfitInLocal) // 10*3.8 - 10*3.6
	requireDec(t, "82", c.HistoricalProfit)
}
