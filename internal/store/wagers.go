package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/radieske/bet-ledger/internal/ledger"
)

const wagerColumns = `id, casaId, tipo, evento, fecha, seleccion, cuota, monto, resultado, tipoCambioUSD, fechaResolucion`

func (s *Store) Wagers(ctx context.Context) ([]ledger.Wager, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+wagerColumns+` FROM apuestas ORDER BY fecha DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Wager busca uma aposta pelo id.
func (s *Store) Wager(ctx context.Context, id string) (ledger.Wager, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+wagerColumns+` FROM apuestas WHERE id = ?`, id)
	w, err := scanWager(row)
	if err == sql.ErrNoRows {
		return ledger.Wager{}, ledger.ErrNotFound
	}
	return w, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWager(sc scanner) (ledger.Wager, error) {
	var w ledger.Wager
	var kind, outcome string
	var rate sql.NullFloat64
	var resolved sql.NullString
	if err := sc.Scan(&w.ID, &w.HouseID, &kind, &w.Event, &w.Date, &w.Selection, &w.Odds, &w.Stake, &outcome, &rate, &resolved); err != nil {
		return ledger.Wager{}, err
	}
	w.Kind = ledger.WagerKind(kind)
	w.Outcome = ledger.Outcome(outcome)
	w.FrozenRate = nullFloat(rate)
	w.ResolvedAt = nullString(resolved)
	return w, nil
}

func (s *Store) InsertWager(ctx context.Context, w ledger.Wager) error {
	return insertWager(ctx, s.db, w)
}

func insertWager(ctx context.Context, ex execer, w ledger.Wager) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO apuestas (`+wagerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.HouseID, string(w.Kind), w.Event, w.Date, w.Selection, w.Odds, w.Stake, string(w.Outcome),
		floatArg(w.FrozenRate), stringArg(w.ResolvedAt))
	return err
}

// UpdateWager grava só os campos presentes no patch. frozen, quando não nil,
// grava também a cotação congelada e a data de resolução.
func (s *Store) UpdateWager(ctx context.Context, id string, p ledger.WagerPatch, frozen *ledger.Wager) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.HouseID != nil {
		add("casaId", *p.HouseID)
	}
	if p.Kind != nil {
		add("tipo", string(*p.Kind))
	}
	if p.Event != nil {
		add("evento", *p.Event)
	}
	if p.Date != nil {
		add("fecha", *p.Date)
	}
	if p.Selection != nil {
		add("seleccion", *p.Selection)
	}
	if p.Odds != nil {
		add("cuota", *p.Odds)
	}
	if p.Stake != nil {
		add("monto", *p.Stake)
	}
	if p.Outcome != nil {
		add("resultado", string(*p.Outcome))
	}
	if frozen != nil {
		add("tipoCambioUSD", floatArg(frozen.FrozenRate))
		add("fechaResolucion", stringArg(frozen.ResolvedAt))
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE apuestas SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteWager(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM apuestas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
