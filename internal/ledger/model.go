package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// Currency é a moeda de uma casa. Os valores persistidos são os códigos ISO.
type Currency string

const (
	PEN Currency = "PEN" // moeda local
	USD Currency = "USD"

	LocalCurrency = PEN
)

func (c Currency) Valid() bool { return c == PEN || c == USD }

// WagerKind distingue aposta simples de perna de surebet (arbitragem).
type WagerKind string

const (
	KindSingle  WagerKind = "normal"
	KindSurebet WagerKind = "surebet"
)

func (k WagerKind) Valid() bool { return k == KindSingle || k == KindSurebet }

// Outcome é o resultado de uma aposta.
// Os valores são os mesmos gravados pelas imagens .db e backups JSON existentes.
type Outcome string

const (
	Pending  Outcome = "pendiente"
	Won      Outcome = "ganada"
	Lost     Outcome = "perdida"
	Push     Outcome = "devolución"
	HalfWon  Outcome = "medio ganada"
	HalfLost Outcome = "medio perdida"
)

// Outcomes lista todos os resultados na ordem de exibição.
var Outcomes = []Outcome{Won, Lost, Pending, Push, HalfWon, HalfLost}

func (o Outcome) Valid() bool {
	for _, v := range Outcomes {
		if o == v {
			return true
		}
	}
	return false
}

// Resolved indica se a aposta já saiu de pendente.
func (o Outcome) Resolved() bool { return o != Pending }

// ParseOutcome aceita o valor persistido ou o nome em inglês usado no CLI.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", string(Pending):
		return Pending, nil
	case "won", string(Won):
		return Won, nil
	case "lost", string(Lost):
		return Lost, nil
	case "push", "void", string(Push), "devolucion":
		return Push, nil
	case "half-won", string(HalfWon):
		return HalfWon, nil
	case "half-lost", string(HalfLost):
		return HalfLost, nil
	}
	return "", fmt.Errorf("%w: unknown outcome %q", ErrValidation, s)
}

// House é uma casa de apostas (conta) numa única moeda.
type House struct {
	ID       string   `json:"id"`
	Name     string   `json:"nombre"`
	Currency Currency `json:"moneda"`
}

func (h House) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: house name required", ErrValidation)
	}
	if !h.Currency.Valid() {
		return fmt.Errorf("%w: invalid currency %q", ErrValidation, h.Currency)
	}
	return nil
}

// Deposit é um aporte numa casa.
// FrozenRate é reservado: é gravado e exportado, mas nenhum comando o preenche.
type Deposit struct {
	ID         string   `json:"id"`
	HouseID    string   `json:"casaId"`
	Amount     float64  `json:"monto"`
	Date       string   `json:"fecha"`
	FrozenRate *float64 `json:"tipoCambioUSD,omitempty"`
}

func (d Deposit) Validate() error { return validateMovement(d.HouseID, d.Amount, d.Date) }

// Withdrawal é um saque; mesmo formato do depósito.
type Withdrawal struct {
	ID         string   `json:"id"`
	HouseID    string   `json:"casaId"`
	Amount     float64  `json:"monto"`
	Date       string   `json:"fecha"`
	FrozenRate *float64 `json:"tipoCambioUSD,omitempty"`
}

func (w Withdrawal) Validate() error { return validateMovement(w.HouseID, w.Amount, w.Date) }

func validateMovement(houseID string, amount float64, date string) error {
	if houseID == "" {
		return fmt.Errorf("%w: house required", ErrValidation)
	}
	if !(amount > 0) {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(date) == "" {
		return fmt.Errorf("%w: date required", ErrValidation)
	}
	return nil
}

// Wager é uma aposta simples ou uma perna de surebet.
// FrozenRate e ResolvedAt são preenchidos juntos, uma única vez, na primeira
// resolução de uma aposta de casa em USD.
type Wager struct {
	ID         string    `json:"id"`
	HouseID    string    `json:"casaId"`
	Kind       WagerKind `json:"tipo"`
	Event      string    `json:"evento"`
	Date       string    `json:"fecha"`
	Selection  string    `json:"seleccion"`
	Odds       float64   `json:"cuota"`
	Stake      float64   `json:"monto"`
	Outcome    Outcome   `json:"resultado"`
	FrozenRate *float64  `json:"tipoCambioUSD,omitempty"`
	ResolvedAt *string   `json:"fechaResolucion,omitempty"`
}

func (w Wager) Validate() error {
	if w.HouseID == "" {
		return fmt.Errorf("%w: house required", ErrValidation)
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("%w: invalid kind %q", ErrValidation, w.Kind)
	}
	if strings.TrimSpace(w.Event) == "" {
		return fmt.Errorf("%w: event required", ErrValidation)
	}
	if strings.TrimSpace(w.Selection) == "" {
		return fmt.Errorf("%w: selection required", ErrValidation)
	}
	if strings.TrimSpace(w.Date) == "" {
		return fmt.Errorf("%w: date required", ErrValidation)
	}
	if !(w.Odds > 0) {
		return fmt.Errorf("%w: odds must be positive", ErrValidation)
	}
	if !(w.Stake > 0) {
		return fmt.Errorf("%w: stake must be positive", ErrValidation)
	}
	if !w.Outcome.Valid() {
		return fmt.Errorf("%w: invalid outcome %q", ErrValidation, w.Outcome)
	}
	return nil
}

// WagerPatch é uma edição parcial; campos nil não mudam.
// Não há como alterar FrozenRate/ResolvedAt por edição.
type WagerPatch struct {
	HouseID   *string
	Kind      *WagerKind
	Event     *string
	Date      *string
	Selection *string
	Odds      *float64
	Stake     *float64
	Outcome   *Outcome
}

// Empty indica que o patch não altera nada.
func (p WagerPatch) Empty() bool {
	return p.HouseID == nil && p.Kind == nil && p.Event == nil && p.Date == nil &&
		p.Selection == nil && p.Odds == nil && p.Stake == nil && p.Outcome == nil
}

// Apply devolve a aposta com o patch aplicado (sem tocar nos campos congelados).
func (p WagerPatch) Apply(w Wager) Wager {
	if p.HouseID != nil {
		w.HouseID = *p.HouseID
	}
	if p.Kind != nil {
		w.Kind = *p.Kind
	}
	if p.Event != nil {
		w.Event = *p.Event
	}
	if p.Date != nil {
		w.Date = *p.Date
	}
	if p.Selection != nil {
		w.Selection = *p.Selection
	}
	if p.Odds != nil {
		w.Odds = *p.Odds
	}
	if p.Stake != nil {
		w.Stake = *p.Stake
	}
	if p.Outcome != nil {
		w.Outcome = *p.Outcome
	}
	return w
}

// Snapshot é o conjunto completo das quatro coleções lido do banco.
type Snapshot struct {
	Houses      []House
	Deposits    []Deposit
	Withdrawals []Withdrawal
	Wagers      []Wager
}

// House procura uma casa pelo id.
func (s Snapshot) House(id string) (House, bool) {
	for _, h := range s.Houses {
		if h.ID == id {
			return h, true
		}
	}
	return House{}, false
}

// Wager procura uma aposta pelo id.
func (s Snapshot) Wager(id string) (Wager, bool) {
	for _, w := range s.Wagers {
		if w.ID == id {
			return w, true
		}
	}
	return Wager{}, false
}
