package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/shared/db"
)

var ErrInvalidImage = errors.New("invalid database image")

// Os nomes de tabelas/colunas são os das imagens .db já existentes,
// para que exportar/importar entre versões continue funcionando.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS casas (
		id TEXT PRIMARY KEY,
		nombre TEXT NOT NULL,
		moneda TEXT DEFAULT 'PEN'
	)`,
	`CREATE TABLE IF NOT EXISTS depositos (
		id TEXT PRIMARY KEY,
		casaId TEXT NOT NULL,
		monto REAL NOT NULL,
		fecha TEXT NOT NULL,
		tipoCambioUSD REAL,
		FOREIGN KEY (casaId) REFERENCES casas(id)
	)`,
	`CREATE TABLE IF NOT EXISTS retiros (
		id TEXT PRIMARY KEY,
		casaId TEXT NOT NULL,
		monto REAL NOT NULL,
		fecha TEXT NOT NULL,
		tipoCambioUSD REAL,
		FOREIGN KEY (casaId) REFERENCES casas(id)
	)`,
	`CREATE TABLE IF NOT EXISTS apuestas (
		id TEXT PRIMARY KEY,
		casaId TEXT NOT NULL,
		tipo TEXT NOT NULL,
		evento TEXT NOT NULL,
		fecha TEXT NOT NULL,
		seleccion TEXT NOT NULL,
		cuota REAL NOT NULL,
		monto REAL NOT NULL,
		resultado TEXT NOT NULL,
		tipoCambioUSD REAL,
		fechaResolucion TEXT,
		FOREIGN KEY (casaId) REFERENCES casas(id)
	)`,
}

// Evolução de schema é só aditiva: colunas novas, anuláveis, no fim.
var additiveColumns = []string{
	`ALTER TABLE casas ADD COLUMN moneda TEXT DEFAULT 'PEN'`,
	`ALTER TABLE depositos ADD COLUMN tipoCambioUSD REAL`,
	`ALTER TABLE retiros ADD COLUMN tipoCambioUSD REAL`,
	`ALTER TABLE apuestas ADD COLUMN tipoCambioUSD REAL`,
	`ALTER TABLE apuestas ADD COLUMN fechaResolucion TEXT`,
}

// Store é o banco relacional embutido (SQLite em memória, uma conexão).
type Store struct {
	log *zap.Logger
	db  *sql.DB
}

// Open cria o banco. Imagem vazia gera um banco novo; caso contrário a imagem
// é carregada e migrada.
func Open(ctx context.Context, log *zap.Logger, image []byte) (*Store, error) {
	conn, err := db.OpenMemorySQLite(ctx)
	if err != nil {
		return nil, err
	}
	s := &Store{log: log, db: conn}

	if len(image) > 0 {
		if err := s.load(ctx, image); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB expõe a conexão para quem precisa de transações próprias (import).
func (s *Store) DB() *sql.DB { return s.db }

// migrate cria as tabelas ausentes e aplica as colunas aditivas.
// "duplicate column name" é esperado e ignorado.
func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, stmt := range additiveColumns {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return err
		}
		s.log.Info("schema column added", zap.String("stmt", stmt))
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}

// Export serializa o banco inteiro numa imagem de bytes.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var image []byte
	err = conn.Raw(func(dc any) error {
		sc, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver conn %T", dc)
		}
		b, err := sc.Serialize("main")
		if err != nil {
			return err
		}
		image = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return image, nil
}

// Replace troca o banco atual pela imagem informada.
// A imagem é validada numa conexão separada antes; se falhar, o banco atual fica intacto.
func (s *Store) Replace(ctx context.Context, image []byte) error {
	if err := s.load(ctx, image); err != nil {
		return err
	}
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	s.log.Info("database replaced", zap.Int("bytes", len(image)))
	return nil
}

// load valida a imagem fora do banco vivo e só então a copia para ele:
//  1. desserializa num banco descartável e roda PRAGMA quick_check;
//  2. copia para um banco de staging (o desserializado tem tamanho fixo),
//     aplica as migrações e lê as quatro coleções;
//  3. copia o staging para o banco vivo pela API de backup.
//
// Qualquer falha até o passo 3 devolve ErrInvalidImage com o banco vivo intacto.
func (s *Store) load(ctx context.Context, image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	scratch, err := db.OpenMemorySQLite(ctx)
	if err != nil {
		return err
	}
	defer scratch.Close()

	if err := deserialize(ctx, scratch, image); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	var check string
	if err := scratch.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&check); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if check != "ok" {
		return fmt.Errorf("%w: %s", ErrInvalidImage, check)
	}

	staging, err := db.OpenMemorySQLite(ctx)
	if err != nil {
		return err
	}
	defer staging.Close()
	if err := backup(ctx, staging, scratch); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	stage := &Store{log: zap.NewNop(), db: staging}
	if err := stage.migrate(ctx); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrInvalidImage, err)
	}
	if _, err := stage.Snapshot(ctx); err != nil {
		return fmt.Errorf("%w: read: %v", ErrInvalidImage, err)
	}

	return backup(ctx, s.db, staging)
}

func deserialize(ctx context.Context, dst *sql.DB, image []byte) error {
	conn, err := dst.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver conn %T", dc)
		}
		return sc.Deserialize(image, "main")
	})
}

// backup copia o conteúdo inteiro de src para dst (ambos de uma conexão só).
func backup(ctx context.Context, dst, src *sql.DB) error {
	dconn, err := dst.Conn(ctx)
	if err != nil {
		return err
	}
	defer dconn.Close()
	sconn, err := src.Conn(ctx)
	if err != nil {
		return err
	}
	defer sconn.Close()

	return dconn.Raw(func(dd any) error {
		d, ok := dd.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver conn %T", dd)
		}
		return sconn.Raw(func(sd any) error {
			sc, ok := sd.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected driver conn %T", sd)
			}
			bk, err := d.Backup("main", sc, "main")
			if err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			if _, err := bk.Step(-1); err != nil {
				_ = bk.Close()
				return fmt.Errorf("backup step: %w", err)
			}
			return bk.Finish()
		})
	})
}
