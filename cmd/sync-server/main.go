package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/internal/shared/cache"
	"github.com/radieske/bet-ledger/internal/shared/config"
	"github.com/radieske/bet-ledger/internal/shared/db"
	"github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/internal/shared/logger"
	"github.com/radieske/bet-ledger/internal/shared/metrics"
	shttp "github.com/radieske/bet-ledger/internal/sync-server/http"
	"github.com/radieske/bet-ledger/internal/sync-server/producer"
	"github.com/radieske/bet-ledger/internal/sync-server/ratecache"
	"github.com/radieske/bet-ledger/internal/sync-server/repo"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "sync-server") // portas padrão do sync-server
	}
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("sync-server", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "sync-server"), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres guarda as imagens; schema via migrações embutidas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := repo.Migrate(pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}
	snapshots := repo.NewPostgres(pg)

	// Redis é opcional: sem ele o proxy de cotação consulta a fonte toda vez
	var rates shttp.RateCache
	var rcache *ratecache.RedisCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, exchange-rate cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			rcache = ratecache.NewRedisCache(rdb, cfg.ExchangeRateCacheTTL)
			rates = rcache
		}
	}

	// Kafka: eventos de snapshot gravado/removido
	pub := producer.NewKafkaPublisher(
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSnapshotSaved),
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSnapshotDeleted),
	)
	defer pub.Close()

	m := shttp.NewMetrics(prometheus.DefaultRegisterer)
	api := shttp.NewServer(log, snapshots, pub, currency.NewExchangeRateAPI(""), rates, m, shttp.Options{
		MaxSnapshotBytes: cfg.MaxSnapshotBytes,
		FallbackRate:     cfg.FallbackRate,
	})

	// Servidor de métricas e health check
	checks := []metrics.Check{{Name: "postgres", Fn: snapshots.Ping}}
	if rcache != nil {
		checks = append(checks, metrics.Check{Name: "redis", Fn: rcache.Ping})
	}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, prometheus.DefaultGatherer, checks...)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 3001
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api srv", zap.Error(err))
	}
}
