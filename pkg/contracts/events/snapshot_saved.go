package events

import "time"

// Evento publicado pelo sync-server após gravar a imagem do banco de um cliente.
type SnapshotSaved struct {
	UserID    string    `json:"user_id"`
	SizeBytes int       `json:"size_bytes"`
	Checksum  string    `json:"checksum"` // sha256 hex da imagem
	Ts        time.Time `json:"ts"`
}

// Evento publicado quando a imagem de um cliente é removida.
type SnapshotDeleted struct {
	UserID string    `json:"user_id"`
	Ts     time.Time `json:"ts"`
}
