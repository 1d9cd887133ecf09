package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
)

func newID() string { return uuid.NewString() }

func (s *Service) AddHouse(ctx context.Context, h ledger.House) (ledger.House, error) {
	if err := h.Validate(); err != nil {
		return ledger.House{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = s.newID()
	if err := s.store.InsertHouse(ctx, h); err != nil {
		return ledger.House{}, err
	}
	s.log.Info("house added", zap.String("id", h.ID), zap.String("currency", string(h.Currency)))
	return h, s.commit(ctx, "add_house")
}

// EditHouse troca nome e moeda. O histórico não é convertido.
func (s *Service) EditHouse(ctx context.Context, h ledger.House) error {
	if err := h.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpdateHouse(ctx, h); err != nil {
		return fmt.Errorf("house %s: %w", h.ID, err)
	}
	return s.commit(ctx, "edit_house")
}

// DeleteHouse remove a casa com todos os seus movimentos e apostas.
func (s *Service) DeleteHouse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteHouse(ctx, id); err != nil {
		return fmt.Errorf("house %s: %w", id, err)
	}
	s.log.Info("house deleted", zap.String("id", id))
	return s.commit(ctx, "delete_house")
}

func (s *Service) AddDeposit(ctx context.Context, d ledger.Deposit) (ledger.Deposit, error) {
	if err := d.Validate(); err != nil {
		return ledger.Deposit{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHouse(d.HouseID); err != nil {
		return ledger.Deposit{}, err
	}
	d.ID = s.newID()
	d.FrozenRate = nil
	if err := s.store.InsertDeposit(ctx, d); err != nil {
		return ledger.Deposit{}, err
	}
	return d, s.commit(ctx, "add_deposit")
}

func (s *Service) DeleteDeposit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteDeposit(ctx, id); err != nil {
		return fmt.Errorf("deposit %s: %w", id, err)
	}
	return s.commit(ctx, "delete_deposit")
}

func (s *Service) AddWithdrawal(ctx context.Context, w ledger.Withdrawal) (ledger.Withdrawal, error) {
	if err := w.Validate(); err != nil {
		return ledger.Withdrawal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHouse(w.HouseID); err != nil {
		return ledger.Withdrawal{}, err
	}
	w.ID = s.newID()
	w.FrozenRate = nil
	if err := s.store.InsertWithdrawal(ctx, w); err != nil {
		return ledger.Withdrawal{}, err
	}
	return w, s.commit(ctx, "add_withdrawal")
}

func (s *Service) DeleteWithdrawal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteWithdrawal(ctx, id); err != nil {
		return fmt.Errorf("withdrawal %s: %w", id, err)
	}
	return s.commit(ctx, "delete_withdrawal")
}

// AddWager cria a aposta. Se ela já nasce resolvida numa casa em USD, a
// cotação é congelada na criação.
func (s *Service) AddWager(ctx context.Context, w ledger.Wager) (ledger.Wager, error) {
	w.FrozenRate, w.ResolvedAt = nil, nil
	if err := w.Validate(); err != nil {
		return ledger.Wager{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	house, ok := s.snap.House(w.HouseID)
	if !ok {
		return ledger.Wager{}, fmt.Errorf("%w: house %s does not exist", ledger.ErrValidation, w.HouseID)
	}
	w.ID = s.newID()
	if ledger.ShouldFreeze(nil, w, house) {
		w = s.freeze(ctx, w)
	}
	if err := s.store.InsertWager(ctx, w); err != nil {
		return ledger.Wager{}, err
	}
	return w, s.commit(ctx, "add_wager")
}

// EditWager aplica uma edição parcial. Só a primeira saída de pendente numa
// casa em USD congela a cotação; os campos congelados nunca são reescritos.
func (s *Service) EditWager(ctx context.Context, id string, p ledger.WagerPatch) (ledger.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.store.Wager(ctx, id)
	if err != nil {
		return ledger.Wager{}, fmt.Errorf("wager %s: %w", id, err)
	}
	if p.Empty() {
		return prev, nil
	}

	next := p.Apply(prev)
	if err := next.Validate(); err != nil {
		return ledger.Wager{}, err
	}
	house, ok := s.snap.House(next.HouseID)
	if !ok {
		return ledger.Wager{}, fmt.Errorf("%w: house %s does not exist", ledger.ErrValidation, next.HouseID)
	}

	var frozen *ledger.Wager
	if ledger.ShouldFreeze(&prev, next, house) {
		next = s.freeze(ctx, next)
		frozen = &next
	}
	if err := s.store.UpdateWager(ctx, id, p, frozen); err != nil {
		return ledger.Wager{}, err
	}
	return next, s.commit(ctx, "edit_wager")
}

func (s *Service) DeleteWager(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteWager(ctx, id); err != nil {
		return fmt.Errorf("wager %s: %w", id, err)
	}
	return s.commit(ctx, "delete_wager")
}

func (s *Service) freeze(ctx context.Context, w ledger.Wager) ledger.Wager {
	q := s.rates.GetRate(ctx)
	s.log.Info("rate frozen on resolution",
		zap.String("wager_id", w.ID), zap.Float64("rate", q.Rate), zap.String("source", q.Source))
	return ledger.Freeze(w, q.Rate, s.now())
}

func (s *Service) requireHouse(id string) error {
	if _, ok := s.snap.House(id); !ok {
		return fmt.Errorf("%w: house %s does not exist", ledger.ErrValidation, id)
	}
	return nil
}
