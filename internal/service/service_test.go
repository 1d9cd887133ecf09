package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/shared/db"
	"github.com/radieske/bet-ledger/internal/store"
	"github.com/radieske/bet-ledger/internal/transfer"
)

type fixedRates struct{ rate float64 }

func (f *fixedRates) GetRate(context.Context) currency.Quote {
	return currency.Quote{Rate: f.rate, AsOf: time.Now(), Source: "test"}
}

type recordingPersister struct {
	images [][]byte
	err    error
}

func (r *recordingPersister) Persist(_ context.Context, image []byte) error {
	r.images = append(r.images, image)
	return r.err
}

func newService(t *testing.T, rate float64) (*Service, *fixedRates, *recordingPersister) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rates := &fixedRates{rate: rate}
	p := &recordingPersister{}
	s, err := New(ctx, zap.NewNop(), st, rates, p)
	require.NoError(t, err)

	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	s.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, rates, p
}

func ptr[T any](v T) *T { return &v }

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func TestLocalHouseScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, p := newService(t, 3.75)

	h, err := s.AddHouse(ctx, ledger.House{Name: "A", Currency: ledger.PEN})
	require.NoError(t, err)
	_, err = s.AddDeposit(ctx, ledger.Deposit{HouseID: h.ID, Amount: 500, Date: "2025-01-01"})
	require.NoError(t, err)
	w, err := s.AddWager(ctx, ledger.Wager{HouseID: h.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 1.8, Stake: 100, Outcome: ledger.Won})
	require.NoError(t, err)
	require.Nil(t, w.FrozenRate)

	st, ok := s.StatsForHouse(h.ID)
	require.True(t, ok)
	requireDec(t, "580", st.Balance)
	require.Len(t, p.images, 3)
}

func TestValidationRejectedBeforeStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, p := newService(t, 3.75)

	_, err := s.AddHouse(ctx, ledger.House{Name: " ", Currency: ledger.PEN})
	require.ErrorIs(t, err, ledger.ErrValidation)

	h, err := s.AddHouse(ctx, ledger.House{Name: "A", Currency: ledger.PEN})
	require.NoError(t, err)

	_, err = s.AddWager(ctx, ledger.Wager{HouseID: h.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 1.8, Stake: 0, Outcome: ledger.Won})
	require.ErrorIs(t, err, ledger.ErrValidation)

	_, err = s.AddDeposit(ctx, ledger.Deposit{HouseID: "missing", Amount: 10, Date: "2025-01-01"})
	require.ErrorIs(t, err, ledger.ErrValidation)

	require.Len(t, p.images, 1)
	require.Empty(t, s.Snapshot().Wagers)
}

func TestFreezeOnlyOnFirstUSDResolution(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, rates, _ := newService(t, 3.6)

	usd, err := s.AddHouse(ctx, ledger.House{Name: "Stake", Currency: ledger.USD})
	require.NoError(t, err)
	w, err := s.AddWager(ctx, ledger.Wager{HouseID: usd.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Pending})
	require.NoError(t, err)
	require.Nil(t, w.FrozenRate)

	rates.rate = 3.8
	w, err = s.EditWager(ctx, w.ID, ledger.WagerPatch{Outcome: ptr(ledger.Won)})
	require.NoError(t, err)
	require.Equal(t, 3.8, *w.FrozenRate)
	require.Equal(t, "2025-05-01T12:00:00Z", *w.ResolvedAt)

	// edições seguintes não mexem na cotação congelada
	rates.rate = 4.1
	w, err = s.EditWager(ctx, w.ID, ledger.WagerPatch{Stake: ptr(20.0), Outcome: ptr(ledger.HalfWon)})
	require.NoError(t, err)
	require.Equal(t, 3.8, *w.FrozenRate)

	_, err = s.EditWager(ctx, w.ID, ledger.WagerPatch{Outcome: ptr(ledger.Pending)})
	require.NoError(t, err)
	w, err = s.EditWager(ctx, w.ID, ledger.WagerPatch{Outcome: ptr(ledger.Lost)})
	require.NoError(t, err)
	require.Equal(t, 3.8, *w.FrozenRate)

	stored, ok := s.Snapshot().Wager(w.ID)
	require.True(t, ok)
	require.Equal(t, 3.8, *stored.FrozenRate)
	require.Equal(t, 20.0, stored.Stake)
}

func TestFreezeAtCreationAndNeverForLocal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t, 3.7)

	usd, err := s.AddHouse(ctx, ledger.House{Name: "Stake", Currency: ledger.USD})
	require.NoError(t, err)
	pen, err := s.AddHouse(ctx, ledger.House{Name: "Betano", Currency: ledger.PEN})
	require.NoError(t, err)

	// campos congelados vindos do chamador são ignorados
	w, err := s.AddWager(ctx, ledger.Wager{HouseID: usd.ID, Kind: ledger.KindSurebet, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Lost, FrozenRate: ptr(9.9)})
	require.NoError(t, err)
	require.Equal(t, 3.7, *w.FrozenRate)

	l, err := s.AddWager(ctx, ledger.Wager{HouseID: pen.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Pending})
	require.NoError(t, err)
	l, err = s.EditWager(ctx, l.ID, ledger.WagerPatch{Outcome: ptr(ledger.Won)})
	require.NoError(t, err)
	require.Nil(t, l.FrozenRate)
	require.Nil(t, l.ResolvedAt)
}

func TestConsolidatedDualRatePolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, rates, _ := newService(t, 3.5)

	usd, err := s.AddHouse(ctx, ledger.House{Name: "Stake", Currency: ledger.USD})
	require.NoError(t, err)
	_, err = s.AddDeposit(ctx, ledger.Deposit{HouseID: usd.ID, Amount: 100, Date: "2025-01-01"})
	require.NoError(t, err)
	_, err = s.AddWager(ctx, ledger.Wager{HouseID: usd.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Won})
	require.NoError(t, err)

	rates.rate = 4.0
	c, q := s.Consolidated(ctx)
	require.Equal(t, 4.0, q.Rate)
	requireDec(t, "440", c.LiveBalance)
	requireDec(t, "35", c.HistoricalUSDProfitInLocal)
}

func TestDeleteHouseCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t, 3.75)

	h, err := s.AddHouse(ctx, ledger.House{Name: "A", Currency: ledger.PEN})
	require.NoError(t, err)
	keep, err := s.AddHouse(ctx, ledger.House{Name: "B", Currency: ledger.PEN})
	require.NoError(t, err)
	_, err = s.AddDeposit(ctx, ledger.Deposit{HouseID: h.ID, Amount: 50, Date: "2025-01-01"})
	require.NoError(t, err)
	_, err = s.AddWithdrawal(ctx, ledger.Withdrawal{HouseID: h.ID, Amount: 10, Date: "2025-01-02"})
	require.NoError(t, err)
	_, err = s.AddWager(ctx, ledger.Wager{HouseID: h.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Pending})
	require.NoError(t, err)
	_, err = s.AddDeposit(ctx, ledger.Deposit{HouseID: keep.ID, Amount: 5, Date: "2025-01-01"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteHouse(ctx, h.ID))
	_, ok := s.StatsForHouse(h.ID)
	require.False(t, ok)

	snap := s.Snapshot()
	require.Len(t, snap.Deposits, 1)
	require.Empty(t, snap.Withdrawals)
	require.Empty(t, snap.Wagers)

	require.ErrorIs(t, s.DeleteHouse(ctx, h.ID), ledger.ErrNotFound)
}

func TestPersistFailureDoesNotFailCommand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, p := newService(t, 3.75)
	p.err = errors.New("disk full")

	h, err := s.AddHouse(ctx, ledger.House{Name: "A", Currency: ledger.PEN})
	require.NoError(t, err)
	_, ok := s.Snapshot().House(h.ID)
	require.True(t, ok)
}

func TestImageExportImportIsIdentical(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t, 3.5)

	usd, err := s.AddHouse(ctx, ledger.House{Name: "Stake", Currency: ledger.USD})
	require.NoError(t, err)
	_, err = s.AddWager(ctx, ledger.Wager{HouseID: usd.ID, Kind: ledger.KindSingle, Event: "E", Date: "2025-01-02",
		Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Won})
	require.NoError(t, err)
	before := s.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, s.WriteImage(ctx, &buf))

	other, _, _ := newService(t, 3.5)
	_, err = other.AddHouse(ctx, ledger.House{Name: "Otra", Currency: ledger.PEN})
	require.NoError(t, err)
	require.NoError(t, other.ImportImage(ctx, &buf))
	require.Equal(t, before, other.Snapshot())

	require.ErrorIs(t, other.ImportImage(ctx, bytes.NewReader([]byte("garbage image content"))), store.ErrInvalidImage)
	require.Equal(t, before, other.Snapshot())
}

func TestImportImageWithForeignSchemaKeepsData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, p := newService(t, 3.5)
	_, err := s.AddHouse(ctx, ledger.House{Name: "Betano", Currency: ledger.PEN})
	require.NoError(t, err)
	before := s.Snapshot()
	persisted := len(p.images)

	// banco SQLite legível, mas de outro aplicativo
	conn, err := db.OpenMemorySQLite(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, `CREATE TABLE casas (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	c, err := conn.Conn(ctx)
	require.NoError(t, err)
	defer c.Close()
	var foreign []byte
	require.NoError(t, c.Raw(func(dc any) error {
		b, err := dc.(*sqlite3.SQLiteConn).Serialize("main")
		foreign = b
		return err
	}))

	require.ErrorIs(t, s.ImportImage(ctx, bytes.NewReader(foreign)), store.ErrInvalidImage)
	require.Equal(t, before, s.Snapshot())
	require.Len(t, p.images, persisted)

	_, err = s.AddHouse(ctx, ledger.House{Name: "Stake", Currency: ledger.USD})
	require.NoError(t, err)
	require.Len(t, s.Snapshot().Houses, 2)
}

func TestDocumentMergeTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t, 3.5)
	h, err := s.AddHouse(ctx, ledger.House{Name: "A", Currency: ledger.PEN})
	require.NoError(t, err)
	_, err = s.AddDeposit(ctx, ledger.Deposit{HouseID: h.ID, Amount: 10, Date: "2025-01-01"})
	require.NoError(t, err)

	var doc bytes.Buffer
	require.NoError(t, s.ExportDocument(&doc))
	raw := doc.Bytes()

	other, _, _ := newService(t, 3.5)
	_, err = other.ImportDocument(ctx, bytes.NewReader(raw), transfer.ModeMerge)
	require.NoError(t, err)
	_, err = other.ImportDocument(ctx, bytes.NewReader(raw), transfer.ModeMerge)
	require.NoError(t, err)

	require.Equal(t, s.Snapshot(), other.Snapshot())

	_, err = other.ImportDocument(ctx, bytes.NewReader([]byte(`{"casas":[]}`)), transfer.ModeReplace)
	require.ErrorIs(t, err, transfer.ErrInvalidDocument)
	require.Len(t, other.Snapshot().Houses, 1)
}
