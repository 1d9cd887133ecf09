package store

import (
	"context"
	"database/sql"

	"github.com/radieske/bet-ledger/internal/ledger"
)

func (s *Store) Deposits(ctx context.Context) ([]ledger.Deposit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, casaId, monto, fecha, tipoCambioUSD FROM depositos ORDER BY fecha DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Deposit
	for rows.Next() {
		var d ledger.Deposit
		var rate sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.HouseID, &d.Amount, &d.Date, &rate); err != nil {
			return nil, err
		}
		d.FrozenRate = nullFloat(rate)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) InsertDeposit(ctx context.Context, d ledger.Deposit) error {
	return insertDeposit(ctx, s.db, d)
}

func insertDeposit(ctx context.Context, ex execer, d ledger.Deposit) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO depositos (id, casaId, monto, fecha, tipoCambioUSD) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.HouseID, d.Amount, d.Date, floatArg(d.FrozenRate))
	return err
}

func (s *Store) DeleteDeposit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM depositos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) Withdrawals(ctx context.Context) ([]ledger.Withdrawal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, casaId, monto, fecha, tipoCambioUSD FROM retiros ORDER BY fecha DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Withdrawal
	for rows.Next() {
		var w ledger.Withdrawal
		var rate sql.NullFloat64
		if err := rows.Scan(&w.ID, &w.HouseID, &w.Amount, &w.Date, &rate); err != nil {
			return nil, err
		}
		w.FrozenRate = nullFloat(rate)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) InsertWithdrawal(ctx context.Context, w ledger.Withdrawal) error {
	return insertWithdrawal(ctx, s.db, w)
}

func insertWithdrawal(ctx context.Context, ex execer, w ledger.Withdrawal) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO retiros (id, casaId, monto, fecha, tipoCambioUSD) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.HouseID, w.Amount, w.Date, floatArg(w.FrozenRate))
	return err
}

func (s *Store) DeleteWithdrawal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM retiros WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
