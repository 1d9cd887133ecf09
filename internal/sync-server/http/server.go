package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/internal/sync-server/repo"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
	"github.com/radieske/bet-ledger/pkg/contracts/syncapi"
)

// Repo define as operações de snapshot usadas pelo handler HTTP
type Repo interface {
	Save(ctx context.Context, userID string, image []byte) (repo.Snapshot, error)
	Load(ctx context.Context, userID string) (repo.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID string) error
}

// Publisher publica os eventos de snapshot. Pode ser nil.
type Publisher interface {
	PublishSnapshotSaved(ctx context.Context, e events.SnapshotSaved) error
	PublishSnapshotDeleted(ctx context.Context, e events.SnapshotDeleted) error
}

// RateCache guarda a última cotação do proxy. Pode ser nil.
type RateCache interface {
	Get(ctx context.Context) (currency.Quote, bool, error)
	Set(ctx context.Context, q currency.Quote) error
}

// Server expõe a API de sync usada pelos clientes
type Server struct {
	log      *zap.Logger
	repo     Repo
	pub      Publisher
	rates    currency.Source
	cache    RateCache
	metrics  *Metrics
	maxBytes int64
	fallback float64
}

type Options struct {
	MaxSnapshotBytes int64
	FallbackRate     float64
}

func NewServer(log *zap.Logger, r Repo, pub Publisher, rates currency.Source, cache RateCache, m *Metrics, opts Options) *Server {
	if opts.MaxSnapshotBytes <= 0 {
		opts.MaxSnapshotBytes = 50 << 20
	}
	if opts.FallbackRate <= 0 {
		opts.FallbackRate = 3.75
	}
	return &Server{
		log: log, repo: r, pub: pub, rates: rates, cache: cache, metrics: m,
		maxBytes: opts.MaxSnapshotBytes, fallback: opts.FallbackRate,
	}
}

// Router retorna as rotas da API de sync
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/exchange-rate", s.exchangeRate)
		r.Post("/db/save", s.save)
		r.Get("/db/load/{userId}", s.load)
		r.Get("/db/list", s.list)
		r.Delete("/db/delete/{userId}", s.delete)
	})
	return r
}

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, syncapi.HealthResponse{Status: "ok", Message: "Servidor funcionando correctamente"})
}

// save grava a imagem enviada. Cada byte vira até 4 caracteres no JSON.
func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes*4+1024)

	var req syncapi.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Base de datos demasiado grande")
			return
		}
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if req.UserID == "" || len(req.DBData) == 0 {
		writeError(w, http.StatusBadRequest, "userId y dbData son requeridos")
		return
	}
	if !userIDPattern.MatchString(req.UserID) {
		writeError(w, http.StatusBadRequest, "userId inválido")
		return
	}

	snap, err := s.repo.Save(r.Context(), req.UserID, req.DBData)
	if err != nil {
		s.metrics.ErrorsBy.WithLabelValues("save").Inc()
		s.log.Error("snapshot save failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error guardando base de datos")
		return
	}
	s.metrics.Saved.Inc()
	s.metrics.SaveBytes.Observe(float64(snap.SizeBytes))
	s.log.Info("snapshot saved", zap.String("user_id", snap.UserID), zap.Int("bytes", snap.SizeBytes))

	s.publish("publish_saved", func(ctx context.Context) error {
		return s.pub.PublishSnapshotSaved(ctx, events.SnapshotSaved{
			UserID: snap.UserID, SizeBytes: snap.SizeBytes, Checksum: snap.Checksum, Ts: snap.UpdatedAt,
		})
	})
	writeJSON(w, http.StatusOK, syncapi.Response{Success: true, Message: "Base de datos guardada correctamente"})
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	snap, err := s.repo.Load(r.Context(), userID)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Base de datos no encontrada")
		return
	}
	if err != nil {
		s.metrics.ErrorsBy.WithLabelValues("load").Inc()
		s.log.Error("snapshot load failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error cargando base de datos")
		return
	}
	s.metrics.Loaded.Inc()
	writeJSON(w, http.StatusOK, syncapi.Response{Success: true, DBData: snap.Image})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ids, err := s.repo.List(r.Context())
	if err != nil {
		s.metrics.ErrorsBy.WithLabelValues("list").Inc()
		s.log.Error("snapshot list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error listando bases de datos")
		return
	}
	writeJSON(w, http.StatusOK, syncapi.Response{Success: true, Databases: ids})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	err := s.repo.Delete(r.Context(), userID)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Base de datos no encontrada")
		return
	}
	if err != nil {
		s.metrics.ErrorsBy.WithLabelValues("delete").Inc()
		s.log.Error("snapshot delete failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error eliminando base de datos")
		return
	}
	s.metrics.Deleted.Inc()
	s.log.Info("snapshot deleted", zap.String("user_id", userID))

	s.publish("publish_deleted", func(ctx context.Context) error {
		return s.pub.PublishSnapshotDeleted(ctx, events.SnapshotDeleted{UserID: userID, Ts: time.Now().UTC()})
	})
	writeJSON(w, http.StatusOK, syncapi.Response{Success: true, Message: "Base de datos eliminada"})
}

// exchangeRate é o proxy de cotação: Redis primeiro, depois a fonte externa.
func (s *Server) exchangeRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.cache != nil {
		q, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.metrics.ErrorsBy.WithLabelValues("rate_cache").Inc()
			s.log.Warn("rate cache read failed", zap.Error(err))
		}
		if ok {
			s.metrics.RateBy.WithLabelValues("cache").Inc()
			writeJSON(w, http.StatusOK, rateResponse(q))
			return
		}
	}

	fctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	rate, err := s.rates.Fetch(fctx)
	cancel()
	if err != nil {
		s.metrics.ErrorsBy.WithLabelValues("rate_fetch").Inc()
		s.log.Warn("rate fetch failed", zap.String("source", s.rates.Name()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, syncapi.RateResponse{
			Success: false, Error: "Error obteniendo tipo de cambio", Fallback: s.fallback,
		})
		return
	}

	q := currency.Quote{Rate: rate, AsOf: time.Now().UTC(), Source: s.rates.Name()}
	if s.cache != nil {
		if err := s.cache.Set(ctx, q); err != nil {
			s.log.Warn("rate cache write failed", zap.Error(err))
		}
	}
	s.metrics.RateBy.WithLabelValues("source").Inc()
	writeJSON(w, http.StatusOK, rateResponse(q))
}

func rateResponse(q currency.Quote) syncapi.RateResponse {
	return syncapi.RateResponse{Success: true, USDPEN: q.Rate, Source: q.Source, Date: q.AsOf.Format(time.RFC3339)}
}

// publish envia o evento fora da requisição; falha de Kafka não afeta o cliente.
func (s *Server) publish(stage string, fn func(ctx context.Context) error) {
	if s.pub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.metrics.ErrorsBy.WithLabelValues(stage).Inc()
			s.log.Warn("event publish failed", zap.String("stage", stage), zap.Error(err))
		}
	}()
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, syncapi.Response{Success: false, Error: msg})
}
