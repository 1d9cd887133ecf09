package storage

import "context"

// Chaves gravadas nos tiers. Não mudam entre versões para que um
// diretório de dados antigo continue legível.
const (
	KeyImage    = "apuestas_db"
	KeyRate     = "tipo_cambio"
	KeyClientID = "user_id"
)

// Tier é um armazenamento chave-valor local.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
}

// Status do teste de capacidade de um tier.
type Status string

const (
	Available   Status = "available"
	Unavailable Status = "unavailable"
)

// ProbeResult é o resultado tipado do teste feito na inicialização.
type ProbeResult struct {
	Tier   Tier
	Status Status
	Err    error
}

const probeKey = "__storage_probe__"

// Probe testa cada tier com uma escrita seguida de remoção, na ordem recebida.
// Deve ser chamado uma vez no startup; o resultado é repassado ao Chain.
func Probe(ctx context.Context, tiers ...Tier) []ProbeResult {
	out := make([]ProbeResult, 0, len(tiers))
	for _, t := range tiers {
		err := t.Set(ctx, probeKey, []byte("1"))
		if err == nil {
			err = t.Delete(ctx, probeKey)
		}
		st := Available
		if err != nil {
			st = Unavailable
		}
		out = append(out, ProbeResult{Tier: t, Status: st, Err: err})
	}
	return out
}
