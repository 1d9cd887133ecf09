package syncapi

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Bytes serializa como array de números (0-255), formato aceito pelo
// servidor de sync desde a primeira versão. []byte puro viraria base64.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	out := make([]byte, 0, len(b)*4+2)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

// SaveRequest é o corpo de POST /api/db/save.
type SaveRequest struct {
	UserID string `json:"userId"`
	DBData Bytes  `json:"dbData"`
}

// Response cobre as respostas de save, load, list e delete.
type Response struct {
	Success   bool     `json:"success"`
	Message   string   `json:"mensaje,omitempty"`
	Error     string   `json:"error,omitempty"`
	DBData    Bytes    `json:"dbData,omitempty"`
	Databases []string `json:"databases,omitempty"`
}

// HealthResponse é a resposta de GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"mensaje,omitempty"`
}

// RateResponse é a resposta de GET /api/exchange-rate.
type RateResponse struct {
	Success  bool    `json:"success"`
	USDPEN   float64 `json:"USD_PEN,omitempty"`
	Source   string  `json:"fuente,omitempty"`
	Date     string  `json:"fecha,omitempty"`
	Error    string  `json:"error,omitempty"`
	Fallback float64 `json:"fallback,omitempty"`
}
