package transfer

import (
	"fmt"
	"io"
	"time"
)

// MaxImageBytes limita a leitura de uma imagem .db importada.
const MaxImageBytes = 50 << 20

func ImageFileName(t time.Time) string    { return "apuestas-" + day(t) + ".db" }
func DocumentFileName(t time.Time) string { return "apuestas-backup-" + day(t) + ".json" }
func CSVFileName(t time.Time) string      { return "apuestas-" + day(t) + ".csv" }

func day(t time.Time) string { return t.Format("2006-01-02") }

func WriteImage(w io.Writer, image []byte) error {
	_, err := w.Write(image)
	return err
}

// ReadImage lê a imagem inteira. A validação do conteúdo fica com o store.
func ReadImage(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxImageBytes)
	}
	return b, nil
}
