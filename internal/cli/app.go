package cli

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/internal/persistence"
	"github.com/radieske/bet-ledger/internal/service"
	"github.com/radieske/bet-ledger/internal/shared/cache"
	"github.com/radieske/bet-ledger/internal/shared/config"
	"github.com/radieske/bet-ledger/internal/shared/logger"
	"github.com/radieske/bet-ledger/internal/storage"
	"github.com/radieske/bet-ledger/internal/store"
	"github.com/radieske/bet-ledger/internal/syncclient"
)

// App reúne tudo que um comando precisa: serviço, persistência e sync.
type App struct {
	Log       *zap.Logger
	Cfg       config.Config
	Service   *service.Service
	Rates     *currency.Provider
	Persister *persistence.Persister
	Sync      *syncclient.Client // nil sem servidor
	Mirror    *syncclient.Mirror // nil sem servidor
	Origin    persistence.Origin

	store   *store.Store
	closers []func()
}

// Verbose liga os logs de debug no stderr.
var Verbose bool

// Open monta a aplicação: tiers locais, probe do servidor, identidade,
// imagem inicial, banco, cotação e serviço.
func Open(ctx context.Context) (*App, error) {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "apuestas"
	}

	// no CLI só avisos vão ao stderr, a não ser com -v ou LOG_LEVEL
	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	if Verbose {
		level = "debug"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, level)
	if err != nil {
		return nil, err
	}

	a := &App{Log: log, Cfg: cfg}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	// tiers do mais durável ao menos durável
	tiers := []storage.Tier{storage.NewFileTier(cfg.DataDir)}
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("session tier unavailable", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			tiers = append(tiers, storage.NewRedisTier(rdb, "apuestas:", cfg.SessionTTL))
		}
	}
	tiers = append(tiers, storage.NewMemoryTier())
	chain := storage.NewChain(log, storage.Probe(ctx, tiers...))

	userID, err := syncclient.Identity(ctx, chain)
	if err != nil {
		log.Warn("client id not persisted", zap.Error(err))
	}

	var remote persistence.Remote
	var queue persistence.Queue
	if cfg.SyncURL != "" {
		c := syncclient.New(cfg.SyncURL)
		if c.Probe(ctx) {
			a.Sync = c
			a.Mirror = syncclient.NewMirror(log, c, userID, 30*time.Second)
			remote, queue = c, a.Mirror
		} else {
			log.Warn("sync server unavailable", zap.String("url", cfg.SyncURL))
		}
	}
	a.Persister = persistence.New(log, chain, remote, queue, userID)

	// servidor, depois tier local; uma imagem ilegível não impede a próxima
	var st *store.Store
	origin, err := a.Persister.Bootstrap(ctx, func(image []byte) error {
		s, err := store.Open(ctx, log, image)
		if err != nil {
			return err
		}
		st = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.store = st
	a.Origin = origin

	sources := []currency.Source{currency.NewGoogleFinance(""), currency.NewExchangeRateAPI("")}
	if a.Sync != nil && cfg.RateViaSync {
		sources = append(sources, syncclient.RateSource{Client: a.Sync})
	}
	a.Rates = currency.NewProvider(log, chain, currency.Options{
		CacheTTL:     cfg.RateCacheTTL,
		Timeout:      cfg.RateTimeout,
		FallbackRate: cfg.FallbackRate,
	}, sources...)

	svc, err := service.New(ctx, log, st, a.Rates, a.Persister)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.Service = svc
	return a, nil
}

// Close envia a última imagem pendente ao servidor e libera recursos.
func (a *App) Close(ctx context.Context) {
	if a.Mirror != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if err := a.Mirror.Close(cctx); err != nil {
			a.Log.Warn("sync flush interrupted", zap.Error(err))
		}
		cancel()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
