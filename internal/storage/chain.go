package storage

import (
	"context"

	"go.uber.org/zap"
)

// Chain usa o primeiro tier disponível para todas as leituras e escritas da
// sessão. Não há nova sondagem nem promoção de tier depois do startup.
type Chain struct {
	log       *zap.Logger
	active    Tier
	available []Tier
}

// NewChain escolhe o tier ativo a partir do resultado do Probe.
// Sem nenhum disponível, cai num MemoryTier novo.
func NewChain(log *zap.Logger, results []ProbeResult) *Chain {
	c := &Chain{log: log}
	for _, r := range results {
		if r.Status != Available {
			log.Warn("storage tier unavailable", zap.String("tier", r.Tier.Name()), zap.Error(r.Err))
			continue
		}
		c.available = append(c.available, r.Tier)
	}
	if len(c.available) == 0 {
		c.available = []Tier{NewMemoryTier()}
	}
	c.active = c.available[0]
	log.Info("storage tier selected", zap.String("tier", c.active.Name()))
	return c
}

// Active devolve o tier escolhido.
func (c *Chain) Active() Tier { return c.active }

func (c *Chain) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.active.Get(ctx, key)
}

func (c *Chain) Set(ctx context.Context, key string, val []byte) error {
	return c.active.Set(ctx, key, val)
}

func (c *Chain) Delete(ctx context.Context, key string) error {
	return c.active.Delete(ctx, key)
}

// GetAny procura a chave em todos os tiers disponíveis, do mais durável ao
// menos durável. Erros de um tier são logados e o próximo é tentado.
func (c *Chain) GetAny(ctx context.Context, key string) ([]byte, bool) {
	for _, t := range c.available {
		v, ok, err := t.Get(ctx, key)
		if err != nil {
			c.log.Warn("storage tier read failed", zap.String("tier", t.Name()), zap.String("key", key), zap.Error(err))
			continue
		}
		if ok {
			return v, true
		}
	}
	return nil, false
}
