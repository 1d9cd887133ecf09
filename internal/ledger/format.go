package ledger

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount formata um valor com o símbolo da moeda (S/ ou $).
func FormatAmount(d decimal.Decimal, c Currency) string {
	f, _ := d.Round(2).Float64()
	return money.NewFromFloat(f, string(c)).Display()
}

// FormatSigned é FormatAmount com sinal explícito para ganhos.
func FormatSigned(d decimal.Decimal, c Currency) string {
	if d.IsPositive() {
		return "+" + FormatAmount(d, c)
	}
	return FormatAmount(d, c)
}

// CurrencyName devolve o nome da moeda por extenso.
func CurrencyName(c Currency) string {
	if c == PEN {
		return "Soles Peruanos"
	}
	return "Dólares Americanos"
}
