package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/store"
)

// Rates é a fonte de cotação (currency.Provider).
type Rates interface {
	GetRate(ctx context.Context) currency.Quote
}

// Persister recebe a imagem do banco depois de cada escrita.
type Persister interface {
	Persist(ctx context.Context, image []byte) error
}

// Service é a fachada do livro-razão: comandos validam, gravam no store,
// exportam a imagem e persistem; leituras usam o snapshot recarregado após
// cada escrita.
type Service struct {
	log     *zap.Logger
	store   *store.Store
	rates   Rates
	persist Persister
	now     func() time.Time
	newID   func() string

	mu   sync.Mutex
	snap ledger.Snapshot
}

func New(ctx context.Context, log *zap.Logger, st *store.Store, rates Rates, p Persister) (*Service, error) {
	s := &Service{
		log:     log,
		store:   st,
		rates:   rates,
		persist: p,
		now:     time.Now,
		newID:   newID,
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) reload(ctx context.Context) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	s.snap = snap
	return nil
}

// commit roda depois de toda escrita bem-sucedida. Falha ao persistir é
// logada e não desfaz a escrita: o dado continua no banco em memória e a
// próxima escrita tenta de novo.
func (s *Service) commit(ctx context.Context, op string) error {
	image, err := s.store.Export(ctx)
	if err != nil {
		s.log.Error("export after write failed", zap.String("op", op), zap.Error(err))
	} else if err := s.persist.Persist(ctx, image); err != nil {
		s.log.Error("persist failed", zap.String("op", op), zap.Error(err))
	}
	return s.reload(ctx)
}

// ExportImage devolve a imagem atual do banco.
func (s *Service) ExportImage(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Export(ctx)
}

func (s *Service) Snapshot() ledger.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Service) StatsForHouse(houseID string) (ledger.HouseStats, bool) {
	return ledger.StatsForHouse(s.Snapshot(), houseID)
}

func (s *Service) AllHouseStats() []ledger.HouseStats {
	return ledger.AllHouseStats(s.Snapshot())
}

func (s *Service) StatsTotal() map[ledger.Currency]ledger.Totals {
	return ledger.StatsTotal(s.Snapshot())
}

// Consolidated calcula o "Balance Total" com a cotação atual.
func (s *Service) Consolidated(ctx context.Context) (ledger.Consolidation, currency.Quote) {
	q := s.rates.GetRate(ctx)
	return ledger.Consolidate(s.Snapshot(), q.Rate), q
}

func (s *Service) History(houseID string) ([]ledger.Operation, error) {
	snap := s.Snapshot()
	if _, ok := snap.House(houseID); !ok {
		return nil, fmt.Errorf("house %s: %w", houseID, ledger.ErrNotFound)
	}
	return ledger.History(snap, houseID), nil
}

func (s *Service) Summary() ledger.Summary {
	return ledger.Summarize(s.Snapshot())
}

func (s *Service) Wagers(f ledger.WagerFilter) []ledger.Wager {
	return ledger.FilterWagers(s.Snapshot().Wagers, f)
}
