package syncclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errRejected = errors.New("server rejected snapshot")

// Saver é o lado remoto do espelhamento.
type Saver interface {
	Save(ctx context.Context, userID string, image []byte) (bool, error)
}

// Status é o estado observável do último envio.
type Status struct {
	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success"`
	OK          bool      `json:"ok"`
	Err         string    `json:"error,omitempty"`
	Attempts    int       `json:"attempts"`
	Failures    int       `json:"failures"`
	Pending     bool      `json:"pending"`
}

// Mirror envia imagens ao servidor numa goroutine própria.
// Só a imagem mais recente fica na fila: uma imagem é tentada uma vez, a não
// ser que outra mais nova a substitua antes. Falhas são logadas, sem retry;
// a próxima escrita local gera a próxima tentativa.
type Mirror struct {
	log     *zap.Logger
	saver   Saver
	userID  string
	timeout time.Duration

	mu      sync.Mutex
	pending []byte
	status  Status
	closed  bool

	wake      chan struct{}
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewMirror(log *zap.Logger, saver Saver, userID string, timeout time.Duration) *Mirror {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	m := &Mirror{
		log:     log,
		saver:   saver,
		userID:  userID,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// Enqueue substitui a imagem pendente e acorda o worker. Não bloqueia.
func (m *Mirror) Enqueue(image []byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.log.Warn("sync mirror closed, image dropped")
		return
	}
	m.pending = image
	m.status.Pending = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mirror) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Close para de aceitar imagens, envia a pendente (se houver) e espera o
// worker terminar ou ctx expirar.
func (m *Mirror) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.closing)
	})
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for {
		select {
		case <-m.wake:
			m.flush()
		case <-m.closing:
			m.flush()
			return
		}
	}
}

func (m *Mirror) flush() {
	m.mu.Lock()
	image := m.pending
	m.pending = nil
	m.mu.Unlock()
	if image == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	ok, err := m.saver.Save(ctx, m.userID, image)
	cancel()
	if err == nil && !ok {
		err = errRejected
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.status.LastAttempt = now
	m.status.Attempts++
	m.status.Pending = m.pending != nil
	if err != nil {
		m.status.OK = false
		m.status.Err = err.Error()
		m.status.Failures++
		m.log.Warn("sync save failed", zap.String("user_id", m.userID), zap.Int("bytes", len(image)), zap.Error(err))
		return
	}
	m.status.OK = true
	m.status.Err = ""
	m.status.LastSuccess = now
	m.log.Debug("sync save ok", zap.String("user_id", m.userID), zap.Int("bytes", len(image)))
}
