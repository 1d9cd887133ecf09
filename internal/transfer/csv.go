package transfer

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/radieske/bet-ledger/internal/ledger"
)

var csvHeader = []string{"Fecha", "Casa", "Tipo", "Evento", "Selección", "Cuota", "Monto", "Resultado"}

const unknownHouse = "Desconocida"

// WriteCSV exporta uma linha por aposta. Só exportação; não há import de CSV.
func WriteCSV(w io.Writer, wagers []ledger.Wager, houses []ledger.House) error {
	names := make(map[string]string, len(houses))
	for _, h := range houses {
		names[h.ID] = h.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range wagers {
		name, ok := names[a.HouseID]
		if !ok {
			name = unknownHouse
		}
		row := []string{
			a.Date,
			name,
			string(a.Kind),
			a.Event,
			a.Selection,
			strconv.FormatFloat(a.Odds, 'f', -1, 64),
			strconv.FormatFloat(a.Stake, 'f', -1, 64),
			string(a.Outcome),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
