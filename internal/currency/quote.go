package currency

import (
	"context"
	"time"
)

// Nomes de fonte gravados junto da cotação.
const (
	SourceGoogle          = "Google Finance"
	SourceExchangeRateAPI = "ExchangeRate-API"
	SourceSyncServer      = "Sync Server"
	SourceManual          = "Fallback Manual"
)

// Quote é quantos soles vale 1 dólar. O JSON é o formato já gravado
// na chave tipo_cambio.
type Quote struct {
	Rate   float64   `json:"USD_PEN"`
	AsOf   time.Time `json:"fecha"`
	Source string    `json:"fuente"`
}

// Source é uma fonte remota de cotação USD→PEN.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (float64, error)
}
