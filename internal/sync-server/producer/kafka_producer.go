package producer

import (
	"context"
	"time"

	"github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de snapshot, um writer por tópico.
type KafkaPublisher struct {
	Saved   *kafka.Writer
	Deleted *kafka.Writer
}

func NewKafkaPublisher(saved, deleted *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Saved: saved, Deleted: deleted}
}

func (p *KafkaPublisher) PublishSnapshotSaved(ctx context.Context, e events.SnapshotSaved) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return kafka.WriteEvent(ctx, p.Saved, e.UserID, "snapshot_saved", e)
}

func (p *KafkaPublisher) PublishSnapshotDeleted(ctx context.Context, e events.SnapshotDeleted) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return kafka.WriteEvent(ctx, p.Deleted, e.UserID, "snapshot_deleted", e)
}

func (p *KafkaPublisher) Close() error {
	err := p.Saved.Close()
	if derr := p.Deleted.Close(); err == nil {
		err = derr
	}
	return err
}
