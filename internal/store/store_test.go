package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/shared/db"
)

func ptr[T any](v T) *T { return &v }

func openStore(t *testing.T, image []byte) *Store {
	t.Helper()
	s, err := Open(context.Background(), zap.NewNop(), image)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InsertHouse(ctx, ledger.House{ID: "h1", Name: "Betano", Currency: ledger.PEN}))
	require.NoError(t, s.InsertHouse(ctx, ledger.House{ID: "h2", Name: "Atlantic", Currency: ledger.USD}))
	require.NoError(t, s.InsertDeposit(ctx, ledger.Deposit{ID: "d1", HouseID: "h1", Amount: 500, Date: "2025-01-01"}))
	require.NoError(t, s.InsertDeposit(ctx, ledger.Deposit{ID: "d2", HouseID: "h2", Amount: 100, Date: "2025-01-02"}))
	require.NoError(t, s.InsertWithdrawal(ctx, ledger.Withdrawal{ID: "r1", HouseID: "h1", Amount: 50, Date: "2025-01-05"}))
	require.NoError(t, s.InsertWager(ctx, ledger.Wager{
		ID: "w1", HouseID: "h1", Kind: ledger.KindSingle, Event: "Alianza vs Cristal", Date: "2025-01-03",
		Selection: "Alianza", Odds: 1.8, Stake: 100, Outcome: ledger.Won,
	}))
	require.NoError(t, s.InsertWager(ctx, ledger.Wager{
		ID: "w2", HouseID: "h2", Kind: ledger.KindSurebet, Event: "Real vs Barca", Date: "2025-01-04",
		Selection: "Over 2.5", Odds: 2, Stake: 10, Outcome: ledger.Won,
		FrozenRate: ptr(3.5), ResolvedAt: ptr("2025-01-04T20:00:00Z"),
	}))
}

func TestCRUDOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	houses, err := s.Houses(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Atlantic", "Betano"}, []string{houses[0].Name, houses[1].Name})

	wagers, err := s.Wagers(ctx)
	require.NoError(t, err)
	require.Equal(t, "w2", wagers[0].ID)
	require.Nil(t, wagers[1].FrozenRate)
	require.Equal(t, 3.5, *wagers[0].FrozenRate)

	w, err := s.Wager(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, ledger.Won, w.Outcome)

	_, err = s.Wager(ctx, "nope")
	require.ErrorIs(t, err, ledger.ErrNotFound)
	require.ErrorIs(t, s.DeleteDeposit(ctx, "nope"), ledger.ErrNotFound)
}

func TestUpdateWagerPartial(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	require.NoError(t, s.UpdateWager(ctx, "w1", ledger.WagerPatch{Stake: ptr(120.0)}, nil))
	w, err := s.Wager(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, 120.0, w.Stake)
	require.Equal(t, 1.8, w.Odds)
	require.Equal(t, "Alianza", w.Selection)

	frozen := ledger.Wager{FrozenRate: ptr(3.7), ResolvedAt: ptr("2025-02-01T00:00:00Z")}
	require.NoError(t, s.UpdateWager(ctx, "w1", ledger.WagerPatch{}, &frozen))
	w, err = s.Wager(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, 3.7, *w.FrozenRate)

	require.ErrorIs(t, s.UpdateWager(ctx, "nope", ledger.WagerPatch{Stake: ptr(1.0)}, nil), ledger.ErrNotFound)
}

func TestDeleteHouseCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	require.NoError(t, s.DeleteHouse(ctx, "h1"))
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Houses, 1)
	require.Len(t, snap.Deposits, 1)
	require.Empty(t, snap.Withdrawals)
	require.Len(t, snap.Wagers, 1)
	for _, w := range snap.Wagers {
		require.NotEqual(t, "h1", w.HouseID)
	}

	require.ErrorIs(t, s.DeleteHouse(ctx, "h1"), ledger.ErrNotFound)
}

func TestExportReopenIsIdentical(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	before, err := s.Snapshot(ctx)
	require.NoError(t, err)

	image, err := s.Export(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, image)

	reopened := openStore(t, image)
	after, err := reopened.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	// o banco reaberto continua aceitando escrita
	require.NoError(t, reopened.InsertHouse(ctx, ledger.House{ID: "h3", Name: "Inkabet", Currency: ledger.PEN}))
}

func TestReplaceRejectsGarbage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	err := s.Replace(ctx, []byte("definitely not a sqlite file, just some bytes that go on for a while"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidImage))

	houses, err := s.Houses(ctx)
	require.NoError(t, err)
	require.Len(t, houses, 2)
}

func TestReplaceSwapsContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := openStore(t, nil)
	require.NoError(t, src.InsertHouse(ctx, ledger.House{ID: "x", Name: "Solo", Currency: ledger.USD}))
	image, err := src.Export(ctx)
	require.NoError(t, err)

	dst := openStore(t, nil)
	seed(t, dst)
	require.NoError(t, dst.Replace(ctx, image))

	snap, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, []ledger.House{{ID: "x", Name: "Solo", Currency: ledger.USD}}, snap.Houses)
	require.Empty(t, snap.Wagers)
}

// sqliteImage serializa um banco montado só com os comandos informados.
func sqliteImage(t *testing.T, stmts ...string) []byte {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenMemorySQLite(ctx)
	require.NoError(t, err)
	defer conn.Close()

	for _, stmt := range stmts {
		_, err := conn.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	c, err := conn.Conn(ctx)
	require.NoError(t, err)
	defer c.Close()

	var image []byte
	require.NoError(t, c.Raw(func(dc any) error {
		b, err := dc.(*sqlite3.SQLiteConn).Serialize("main")
		image = b
		return err
	}))
	return image
}

// legacyImage monta uma imagem com o schema antigo, sem moeda nem colunas de congelamento.
func legacyImage(t *testing.T) []byte {
	t.Helper()
	return sqliteImage(t,
		`CREATE TABLE casas (id TEXT PRIMARY KEY, nombre TEXT NOT NULL)`,
		`CREATE TABLE depositos (id TEXT PRIMARY KEY, casaId TEXT NOT NULL, monto REAL NOT NULL, fecha TEXT NOT NULL)`,
		`CREATE TABLE retiros (id TEXT PRIMARY KEY, casaId TEXT NOT NULL, monto REAL NOT NULL, fecha TEXT NOT NULL)`,
		`CREATE TABLE apuestas (id TEXT PRIMARY KEY, casaId TEXT NOT NULL, tipo TEXT NOT NULL, evento TEXT NOT NULL,
			fecha TEXT NOT NULL, seleccion TEXT NOT NULL, cuota REAL NOT NULL, monto REAL NOT NULL, resultado TEXT NOT NULL)`,
		`INSERT INTO casas VALUES ('old', 'Vieja')`,
		`INSERT INTO apuestas VALUES ('ow', 'old', 'normal', 'E', '2024-05-01', 'S', 2, 10, 'ganada')`,
	)
}

func TestReplaceRejectsForeignSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)
	before, err := s.Snapshot(ctx)
	require.NoError(t, err)

	// SQLite válido, mas a tabela casas não tem as colunas do ledger
	foreign := sqliteImage(t,
		`CREATE TABLE casas (id TEXT PRIMARY KEY)`,
		`INSERT INTO casas VALUES ('x')`,
	)
	err = s.Replace(ctx, foreign)
	require.ErrorIs(t, err, ErrInvalidImage)

	after, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.NoError(t, s.InsertHouse(ctx, ledger.House{ID: "h3", Name: "Inkabet", Currency: ledger.PEN}))

	_, err = Open(ctx, zap.NewNop(), foreign)
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestReplaceRejectsUnreadableValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	// schema certo, mas um valor que não cabe no tipo da coluna
	bad := sqliteImage(t,
		`CREATE TABLE casas (id TEXT PRIMARY KEY, nombre TEXT NOT NULL, moneda TEXT DEFAULT 'PEN')`,
		`CREATE TABLE depositos (id TEXT PRIMARY KEY, casaId TEXT NOT NULL, monto REAL NOT NULL, fecha TEXT NOT NULL, tipoCambioUSD REAL)`,
		`INSERT INTO casas VALUES ('h', 'Casa', 'PEN')`,
		`INSERT INTO depositos VALUES ('d', 'h', 'cien', '2025-01-01', NULL)`,
	)
	require.ErrorIs(t, s.Replace(ctx, bad), ErrInvalidImage)

	houses, err := s.Houses(ctx)
	require.NoError(t, err)
	require.Len(t, houses, 2)
}

func TestOpenMigratesLegacyImage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, legacyImage(t))

	houses, err := s.Houses(ctx)
	require.NoError(t, err)
	require.Equal(t, []ledger.House{{ID: "old", Name: "Vieja", Currency: ledger.PEN}}, houses)

	w, err := s.Wager(ctx, "ow")
	require.NoError(t, err)
	require.Nil(t, w.FrozenRate)
	require.Nil(t, w.ResolvedAt)

	// migrar de novo não falha (colunas duplicadas são ignoradas)
	require.NoError(t, s.migrate(ctx))
}

func TestImportSkipsRecordsWithoutHouse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	incoming := ledger.Snapshot{
		Houses:      []ledger.House{{ID: "h9", Name: "Nueva", Currency: ledger.PEN}},
		Deposits:    []ledger.Deposit{{ID: "d8", HouseID: "nope", Amount: 20, Date: "2025-03-01"}, {ID: "d9", HouseID: "h9", Amount: 5, Date: "2025-03-01"}},
		Withdrawals: []ledger.Withdrawal{{ID: "r8", HouseID: "nope", Amount: 1, Date: "2025-03-02"}},
		Wagers: []ledger.Wager{
			{ID: "w8", HouseID: "nope", Kind: ledger.KindSingle, Event: "E", Date: "2025-03-03",
				Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Pending},
			{ID: "w9", HouseID: "h1", Kind: ledger.KindSingle, Event: "E", Date: "2025-03-03",
				Selection: "S", Odds: 2, Stake: 10, Outcome: ledger.Pending},
		},
	}

	res, err := s.Import(ctx, incoming, false)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Inserted: 3, Orphaned: 3}, res)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	for _, d := range snap.Deposits {
		require.NotEqual(t, "d8", d.ID)
	}
	for _, w := range snap.Withdrawals {
		require.NotEqual(t, "r8", w.ID)
	}
	for _, w := range snap.Wagers {
		require.NotEqual(t, "w8", w.ID)
	}

	// com wipe só valem as casas do próprio backup
	res, err = s.Import(ctx, ledger.Snapshot{Wagers: incoming.Wagers[1:]}, true)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Orphaned: 1}, res)
}

func TestImportMergeAndWipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t, nil)
	seed(t, s)

	incoming := ledger.Snapshot{
		Houses:   []ledger.House{{ID: "h1", Name: "Betano", Currency: ledger.PEN}, {ID: "h9", Name: "Nueva", Currency: ledger.PEN}},
		Deposits: []ledger.Deposit{{ID: "d9", HouseID: "h9", Amount: 20, Date: "2025-03-01"}},
	}

	res, err := s.Import(ctx, incoming, false)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Inserted: 2, Skipped: 1}, res)

	res, err = s.Import(ctx, incoming, false)
	require.NoError(t, err)
	require.Equal(t, ImportResult{Inserted: 0, Skipped: 3}, res)

	res, err = s.Import(ctx, incoming, true)
	require.NoError(t, err)
	require.Equal(t, 3, res.Inserted)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Houses, 2)
	require.Len(t, snap.Deposits, 1)
	require.Empty(t, snap.Wagers)
}
