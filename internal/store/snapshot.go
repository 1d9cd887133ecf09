package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/shared/db"
)

// Snapshot lê as quatro coleções de uma vez.
func (s *Store) Snapshot(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	var err error
	if snap.Houses, err = s.Houses(ctx); err != nil {
		return snap, err
	}
	if snap.Deposits, err = s.Deposits(ctx); err != nil {
		return snap, err
	}
	if snap.Withdrawals, err = s.Withdrawals(ctx); err != nil {
		return snap, err
	}
	if snap.Wagers, err = s.Wagers(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// ImportResult conta o que entrou, o que foi ignorado por id repetido e o que
// apontava para uma casa inexistente.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Orphaned int `json:"orphaned"`
}

// Import grava os registros numa única transação, mantendo os ids.
// Com wipe as quatro tabelas são esvaziadas antes; sem wipe, ids já existentes
// são ignorados. Movimentos e apostas cuja casa não existe depois das casas
// importadas ficam de fora. Qualquer erro desfaz tudo.
func (s *Store) Import(ctx context.Context, snap ledger.Snapshot, wipe bool) (ImportResult, error) {
	var res ImportResult
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res = ImportResult{}
		if wipe {
			for _, t := range []string{"apuestas", "retiros", "depositos", "casas"} {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
					return err
				}
			}
		}

		for _, h := range snap.Houses {
			if err := insertIfMissing(ctx, tx, "casas", h.ID, &res, func() error { return insertHouse(ctx, tx, h) }); err != nil {
				return err
			}
		}
		houses, err := houseIDs(ctx, tx)
		if err != nil {
			return err
		}

		for _, d := range snap.Deposits {
			if !houses[d.HouseID] {
				res.Orphaned++
				continue
			}
			if err := insertIfMissing(ctx, tx, "depositos", d.ID, &res, func() error { return insertDeposit(ctx, tx, d) }); err != nil {
				return err
			}
		}
		for _, w := range snap.Withdrawals {
			if !houses[w.HouseID] {
				res.Orphaned++
				continue
			}
			if err := insertIfMissing(ctx, tx, "retiros", w.ID, &res, func() error { return insertWithdrawal(ctx, tx, w) }); err != nil {
				return err
			}
		}
		for _, w := range snap.Wagers {
			if !houses[w.HouseID] {
				res.Orphaned++
				continue
			}
			if err := insertIfMissing(ctx, tx, "apuestas", w.ID, &res, func() error { return insertWager(ctx, tx, w) }); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.log.Info("records imported",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("orphaned", res.Orphaned),
		zap.Bool("wipe", wipe),
	)
	return res, nil
}

func insertIfMissing(ctx context.Context, tx *sql.Tx, table, id string, res *ImportResult, insert func() error) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	switch {
	case err == nil:
		res.Skipped++
		return nil
	case err != sql.ErrNoRows:
		return err
	}
	if err := insert(); err != nil {
		return err
	}
	res.Inserted++
	return nil
}

func houseIDs(ctx context.Context, tx *sql.Tx) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM casas`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
