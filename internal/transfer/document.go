package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/store"
)

const DocumentVersion = "1.0"

var ErrInvalidDocument = errors.New("invalid backup document")

// Document é o backup estruturado. As chaves JSON são fixas desde a v1.0,
// então backups antigos continuam importáveis.
type Document struct {
	Version     string              `json:"version"`
	ExportedAt  string              `json:"fechaExportacion"`
	Houses      []ledger.House      `json:"casas"`
	Deposits    []ledger.Deposit    `json:"depositos"`
	Withdrawals []ledger.Withdrawal `json:"retiros"`
	Wagers      []ledger.Wager      `json:"apuestas"`
}

func NewDocument(snap ledger.Snapshot, now time.Time) Document {
	return Document{
		Version:     DocumentVersion,
		ExportedAt:  now.UTC().Format(time.RFC3339Nano),
		Houses:      nonNil(snap.Houses),
		Deposits:    nonNil(snap.Deposits),
		Withdrawals: nonNil(snap.Withdrawals),
		Wagers:      nonNil(snap.Wagers),
	}
}

// coleção vazia sai como [] e não null, senão o próprio import recusaria o arquivo
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (d Document) Snapshot() ledger.Snapshot {
	return ledger.Snapshot{Houses: d.Houses, Deposits: d.Deposits, Withdrawals: d.Withdrawals, Wagers: d.Wagers}
}

func EncodeDocument(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

var requiredKeys = []string{"casas", "depositos", "retiros", "apuestas"}

// DecodeDocument lê e valida o backup. Coleção ausente (ou null) e registro
// inválido resultam em ErrInvalidDocument com o motivo.
func DecodeDocument(r io.Reader) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for _, k := range requiredKeys {
		if v, ok := keys[k]; !ok || string(v) == "null" {
			return Document{}, fmt.Errorf("%w: missing %q", ErrInvalidDocument, k)
		}
	}

	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := d.validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return d, nil
}

func (d *Document) validate() error {
	for i := range d.Houses {
		h := &d.Houses[i]
		if h.Currency == "" {
			h.Currency = ledger.LocalCurrency // backups anteriores às casas em USD
		}
		if err := validRecord("casas", i, h.ID, h.Validate()); err != nil {
			return err
		}
	}
	for i, x := range d.Deposits {
		if err := validRecord("depositos", i, x.ID, x.Validate()); err != nil {
			return err
		}
	}
	for i, x := range d.Withdrawals {
		if err := validRecord("retiros", i, x.ID, x.Validate()); err != nil {
			return err
		}
	}
	for i, x := range d.Wagers {
		if err := validRecord("apuestas", i, x.ID, x.Validate()); err != nil {
			return err
		}
	}
	return nil
}

func validRecord(coll string, i int, id string, err error) error {
	if id == "" {
		return fmt.Errorf("%s[%d]: id required", coll, i)
	}
	if err != nil {
		return fmt.Errorf("%s[%d]: %v", coll, i, err)
	}
	return nil
}

// ImportMode decide o que acontece com os dados atuais.
type ImportMode string

const (
	ModeMerge   ImportMode = "merge"   // ignora ids que já existem
	ModeReplace ImportMode = "replace" // apaga tudo antes de inserir
)

func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ModeMerge, ModeReplace:
		return ImportMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown import mode %q", ledger.ErrValidation, s)
}

// Importer grava registros numa transação única (store.Store).
type Importer interface {
	Import(ctx context.Context, snap ledger.Snapshot, wipe bool) (store.ImportResult, error)
}

// ImportDocument aplica o backup. Em caso de erro nada é gravado.
func ImportDocument(ctx context.Context, im Importer, d Document, mode ImportMode) (store.ImportResult, error) {
	return im.Import(ctx, d.Snapshot(), mode == ModeReplace)
}
