package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNotFound = errors.New("snapshot not found")

// Snapshot é a última imagem gravada por um cliente.
type Snapshot struct {
	UserID    string
	Image     []byte
	SizeBytes int
	Checksum  string
	UpdatedAt time.Time
}

// Postgres guarda uma imagem por cliente; cada save sobrescreve a anterior.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func Checksum(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Save grava (ou substitui) a imagem do cliente. Último a escrever vence.
func (p *Postgres) Save(ctx context.Context, userID string, image []byte) (Snapshot, error) {
	s := Snapshot{UserID: userID, Image: image, SizeBytes: len(image), Checksum: Checksum(image)}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO ledger_snapshots (user_id, image, size_bytes, checksum, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE
		SET image = EXCLUDED.image, size_bytes = EXCLUDED.size_bytes,
		    checksum = EXCLUDED.checksum, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		userID, image, s.SizeBytes, s.Checksum).Scan(&s.UpdatedAt)
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func (p *Postgres) Load(ctx context.Context, userID string) (Snapshot, error) {
	s := Snapshot{UserID: userID}
	err := p.db.QueryRowContext(ctx,
		`SELECT image, size_bytes, checksum, updated_at FROM ledger_snapshots WHERE user_id = $1`, userID).
		Scan(&s.Image, &s.SizeBytes, &s.Checksum, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// List devolve os ids de cliente, do mais recente para o mais antigo.
func (p *Postgres) List(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT user_id FROM ledger_snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, userID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM ledger_snapshots WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
