package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type Writer = kafka.Writer

// HeaderEventType identifica o tipo do evento sem abrir o payload.
const HeaderEventType = "event-type"

// NewWriter cria um writer para um tópico. brokers aceita lista separada por vírgula.
func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma chave (usuário) cai na mesma partição
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// WriteEvent serializa v em JSON e publica com a chave e o tipo informados.
func WriteEvent(ctx context.Context, w *kafka.Writer, key, eventType string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(eventType)}},
	}
	return w.WriteMessages(ctx, msg)
}
