package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind é o tipo de linha do histórico financeiro de uma casa.
type OperationKind string

const (
	OpDeposit    OperationKind = "deposito"
	OpWithdrawal OperationKind = "retiro"
	OpWager      OperationKind = "apuesta"
)

// Operation é uma linha do histórico com o saldo acumulado até ela.
type Operation struct {
	ID          string          `json:"id"`
	Kind        OperationKind   `json:"tipo"`
	Amount      float64         `json:"monto"`
	Date        string          `json:"fecha"`
	Description string          `json:"descripcion"`
	Profit      decimal.Decimal `json:"beneficio"` // só apostas
	Balance     decimal.Decimal `json:"saldo"`
}

// History monta o histórico de uma casa: depósitos, saques e apostas resolvidas,
// do mais recente para o mais antigo, com o saldo acumulado em ordem cronológica.
func History(s Snapshot, houseID string) []Operation {
	var ops []Operation
	for _, d := range s.Deposits {
		if d.HouseID == houseID {
			ops = append(ops, Operation{ID: d.ID, Kind: OpDeposit, Amount: d.Amount, Date: d.Date, Description: "Depósito"})
		}
	}
	for _, w := range s.Withdrawals {
		if w.HouseID == houseID {
			ops = append(ops, Operation{ID: w.ID, Kind: OpWithdrawal, Amount: w.Amount, Date: w.Date, Description: "Retiro"})
		}
	}
	for _, w := range s.Wagers {
		if w.HouseID != houseID || !w.Outcome.Resolved() {
			continue
		}
		ops = append(ops, Operation{
			ID:          w.ID,
			Kind:        OpWager,
			Amount:      w.Stake,
			Date:        w.Date,
			Description: w.Event + " - " + string(w.Outcome),
			Profit:      w.Profit(),
		})
	}

	sort.SliceStable(ops, func(i, j int) bool { return dateKey(ops[i].Date).Before(dateKey(ops[j].Date)) })

	balance := decimal.Zero
	for i := range ops {
		switch ops[i].Kind {
		case OpDeposit:
			balance = balance.Add(decimal.NewFromFloat(ops[i].Amount))
		case OpWithdrawal:
			balance = balance.Sub(decimal.NewFromFloat(ops[i].Amount))
		case OpWager:
			balance = balance.Add(ops[i].Profit)
		}
		ops[i].Balance = balance
	}

	// mais recente primeiro
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// dateKey interpreta as datas gravadas (ISO com ou sem hora).
// Datas ilegíveis ficam no início da ordenação.
func dateKey(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
