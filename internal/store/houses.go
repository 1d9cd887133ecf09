package store

import (
	"context"
	"database/sql"

	"github.com/radieske/bet-ledger/internal/ledger"
)

// execer cobre *sql.DB e *sql.Tx; os inserts são reaproveitados pelo import.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Houses(ctx context.Context) ([]ledger.House, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nombre, COALESCE(moneda, 'PEN') FROM casas ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.House
	for rows.Next() {
		var h ledger.House
		var cur string
		if err := rows.Scan(&h.ID, &h.Name, &cur); err != nil {
			return nil, err
		}
		h.Currency = ledger.Currency(cur)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) InsertHouse(ctx context.Context, h ledger.House) error {
	return insertHouse(ctx, s.db, h)
}

func insertHouse(ctx context.Context, ex execer, h ledger.House) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO casas (id, nombre, moneda) VALUES (?, ?, ?)`, h.ID, h.Name, string(h.Currency))
	return err
}

// UpdateHouse altera nome e moeda. Trocar a moeda não converte o histórico.
func (s *Store) UpdateHouse(ctx context.Context, h ledger.House) error {
	res, err := s.db.ExecContext(ctx, `UPDATE casas SET nombre = ?, moneda = ? WHERE id = ?`, h.Name, string(h.Currency), h.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteHouse apaga a casa e, em cascata manual, seus depósitos, saques e apostas.
func (s *Store) DeleteHouse(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM casas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM depositos WHERE casaId = ?`,
		`DELETE FROM retiros WHERE casaId = ?`,
		`DELETE FROM apuestas WHERE casaId = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
