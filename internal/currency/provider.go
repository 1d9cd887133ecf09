package currency

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/storage"
)

// Store é onde a última cotação fica guardada entre execuções.
// storage.Chain satisfaz esta interface.
type Store interface {
	GetAny(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte) error
}

type Options struct {
	CacheTTL     time.Duration
	Timeout      time.Duration // por fonte
	FallbackRate float64
}

// Provider resolve a cotação USD→PEN: cache, fontes remotas em ordem,
// último valor guardado e, por fim, a taxa fixa. Nunca falha.
type Provider struct {
	log     *zap.Logger
	store   Store
	sources []Source
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	cached   *Quote
	cachedAt time.Time
}

func NewProvider(log *zap.Logger, store Store, opts Options, sources ...Source) *Provider {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FallbackRate <= 0 {
		opts.FallbackRate = 3.75
	}
	return &Provider{log: log, store: store, sources: sources, opts: opts, now: time.Now}
}

// GetRate não deduplica chamadas concorrentes; duas chamadas com cache
// vencido consultam as fontes duas vezes.
func (p *Provider) GetRate(ctx context.Context) Quote {
	if q, ok := p.fromCache(); ok {
		return q
	}

	q, ok := p.fromSources(ctx)
	if !ok {
		q, ok = p.fromStore(ctx)
	}
	if !ok {
		q = Quote{Rate: p.opts.FallbackRate, AsOf: p.now().UTC(), Source: SourceManual}
		p.log.Warn("using manual fallback rate", zap.Float64("rate", q.Rate))
	}

	p.remember(ctx, q)
	return q
}

func (p *Provider) fromCache() (Quote, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && p.now().Sub(p.cachedAt) < p.opts.CacheTTL {
		return *p.cached, true
	}
	return Quote{}, false
}

func (p *Provider) fromSources(ctx context.Context) (Quote, bool) {
	for _, s := range p.sources {
		sctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		rate, err := s.Fetch(sctx)
		cancel()
		if err != nil {
			p.log.Warn("rate source failed", zap.String("source", s.Name()), zap.Error(err))
			continue
		}
		p.log.Info("rate fetched", zap.String("source", s.Name()), zap.Float64("rate", rate))
		return Quote{Rate: rate, AsOf: p.now().UTC(), Source: s.Name()}, true
	}
	return Quote{}, false
}

// fromStore usa a última cotação guardada em qualquer tier, sem olhar a idade.
func (p *Provider) fromStore(ctx context.Context) (Quote, bool) {
	if p.store == nil {
		return Quote{}, false
	}
	raw, ok := p.store.GetAny(ctx, storage.KeyRate)
	if !ok {
		return Quote{}, false
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil || !(q.Rate > 0) {
		p.log.Warn("stored rate unreadable", zap.Error(err))
		return Quote{}, false
	}
	p.log.Info("using stored rate", zap.Float64("rate", q.Rate), zap.String("source", q.Source))
	return q, true
}

func (p *Provider) remember(ctx context.Context, q Quote) {
	p.mu.Lock()
	p.cached = &q
	p.cachedAt = p.now()
	p.mu.Unlock()

	if p.store == nil {
		return
	}
	b, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := p.store.Set(ctx, storage.KeyRate, b); err != nil {
		p.log.Warn("rate not persisted", zap.Error(err))
	}
}
