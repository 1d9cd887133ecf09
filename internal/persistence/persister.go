package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/storage"
)

// Local é o tier ativo escolhido no startup (storage.Chain).
type Local interface {
	Active() storage.Tier
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

// Remote é o cliente de sync; nil quando o servidor não respondeu ao probe.
type Remote interface {
	Load(ctx context.Context, userID string) ([]byte, bool, error)
}

// Queue recebe as imagens a espelhar no servidor (syncclient.Mirror).
type Queue interface {
	Enqueue(image []byte)
}

// Persister grava a imagem do banco no tier local e, se o servidor estiver
// disponível, enfileira o espelhamento remoto.
type Persister struct {
	log    *zap.Logger
	local  Local
	remote Remote
	queue  Queue
	userID string
}

// New monta o Persister. remote e queue são nil quando não há servidor.
func New(log *zap.Logger, local Local, remote Remote, queue Queue, userID string) *Persister {
	return &Persister{log: log, local: local, remote: remote, queue: queue, userID: userID}
}

// Persist só falha se o tier local recusar a imagem. O envio remoto nunca
// bloqueia nem desfaz a gravação local.
func (p *Persister) Persist(ctx context.Context, image []byte) error {
	if err := p.local.Set(ctx, storage.KeyImage, image); err != nil {
		return fmt.Errorf("persist %s tier: %w", p.local.Active().Name(), err)
	}
	if p.queue != nil {
		p.queue.Enqueue(image)
	}
	return nil
}

// Candidate é uma imagem inicial possível e de onde ela veio.
type Candidate struct {
	Image  []byte
	Origin Origin
}

// Candidates lista as imagens iniciais na ordem de preferência: servidor,
// depois o tier local. Erros de leitura são logados e a origem é pulada.
func (p *Persister) Candidates(ctx context.Context) []Candidate {
	var out []Candidate
	if p.remote != nil {
		image, ok, err := p.remote.Load(ctx, p.userID)
		switch {
		case err != nil:
			p.log.Warn("remote snapshot load failed", zap.Error(err))
		case ok && len(image) > 0:
			out = append(out, Candidate{Image: image, Origin: OriginRemote})
		default:
			p.log.Info("no snapshot on sync server", zap.String("user_id", p.userID))
		}
	}

	image, ok, err := p.local.Get(ctx, storage.KeyImage)
	switch {
	case err != nil:
		p.log.Warn("local snapshot load failed", zap.String("tier", p.local.Active().Name()), zap.Error(err))
	case ok && len(image) > 0:
		out = append(out, Candidate{Image: image, Origin: OriginLocal})
	}
	return out
}

// Bootstrap entrega a open cada candidato em ordem até um ser aceito.
// Um candidato recusado é guardado em <apuestas_db>.<origem>.unreadable antes
// de seguir, porque a próxima escrita sobrescreve a chave principal.
// Se todos forem recusados, open recebe nil (banco novo).
func (p *Persister) Bootstrap(ctx context.Context, open func(image []byte) error) (Origin, error) {
	for _, c := range p.Candidates(ctx) {
		err := open(c.Image)
		if err == nil {
			p.log.Info("snapshot restored", zap.String("origin", string(c.Origin)), zap.Int("bytes", len(c.Image)))
			return c.Origin, nil
		}
		p.log.Error("snapshot unreadable, trying next origin", zap.String("origin", string(c.Origin)), zap.Error(err))
		if serr := p.local.Set(ctx, UnreadableKey(c.Origin), c.Image); serr != nil {
			p.log.Warn("unreadable snapshot not preserved", zap.String("origin", string(c.Origin)), zap.Error(serr))
		}
	}

	if err := open(nil); err != nil {
		return OriginFresh, fmt.Errorf("open empty store: %w", err)
	}
	return OriginFresh, nil
}

// UnreadableKey é onde fica a cópia de uma imagem inicial recusada.
func UnreadableKey(o Origin) string {
	return storage.KeyImage + "." + string(o) + ".unreadable"
}

// Origin diz de onde veio a imagem inicial.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
	OriginFresh  Origin = "fresh"
)

// Description resume onde os dados vivem, para o aviso exibido ao usuário.
type Description struct {
	Tier      string `json:"tier"`
	Durable   bool   `json:"durable"`
	Remote    bool   `json:"remote"`
	UserID    string `json:"user_id,omitempty"`
	Retention string `json:"retention"`
}

func (p *Persister) Describe() Description {
	name := p.local.Active().Name()
	d := Description{Tier: name, Remote: p.queue != nil, UserID: p.userID}
	switch name {
	case "file":
		d.Durable = true
		d.Retention = "permanent"
	case "session":
		d.Retention = "session only"
	default:
		d.Retention = "lost on exit"
	}
	if d.Remote {
		d.Durable = true
		d.Retention += ", mirrored to sync server"
	}
	return d
}
