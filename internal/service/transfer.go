package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/store"
	"github.com/radieske/bet-ledger/internal/transfer"
)

// ImportImage troca o banco inteiro pela imagem lida de r.
// Imagem inválida deixa o banco atual intacto.
func (s *Service) ImportImage(ctx context.Context, r io.Reader) error {
	image, err := transfer.ReadImage(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Replace(ctx, image); err != nil {
		return err
	}
	return s.commit(ctx, "import_image")
}

func (s *Service) WriteImage(ctx context.Context, w io.Writer) error {
	image, err := s.ExportImage(ctx)
	if err != nil {
		return err
	}
	return transfer.WriteImage(w, image)
}

func (s *Service) ExportDocument(w io.Writer) error {
	return transfer.EncodeDocument(w, transfer.NewDocument(s.Snapshot(), s.now()))
}

// ImportDocument lê um backup JSON e aplica no modo pedido, numa transação.
func (s *Service) ImportDocument(ctx context.Context, r io.Reader, mode transfer.ImportMode) (store.ImportResult, error) {
	doc, err := transfer.DecodeDocument(r)
	if err != nil {
		return store.ImportResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := transfer.ImportDocument(ctx, s.store, doc, mode)
	if err != nil {
		return store.ImportResult{}, err
	}
	s.log.Info("backup imported",
		zap.String("mode", string(mode)),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("orphaned", res.Orphaned),
	)
	return res, s.commit(ctx, "import_document")
}

func (s *Service) ExportCSV(w io.Writer) error {
	snap := s.Snapshot()
	return transfer.WriteCSV(w, snap.Wagers, snap.Houses)
}
