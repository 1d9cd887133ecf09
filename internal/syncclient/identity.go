package syncclient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/bet-ledger/internal/storage"
)

// KV é o subconjunto do storage.Chain usado aqui.
type KV interface {
	GetAny(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte) error
}

// Identity devolve o id deste cliente, criando e guardando um novo no primeiro uso.
func Identity(ctx context.Context, kv KV) (string, error) {
	if v, ok := kv.GetAny(ctx, storage.KeyClientID); ok && len(v) > 0 {
		return string(v), nil
	}
	id := "user_" + uuid.NewString()
	if err := kv.Set(ctx, storage.KeyClientID, []byte(id)); err != nil {
		return "", fmt.Errorf("persist client id: %w", err)
	}
	return id, nil
}
