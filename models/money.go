package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money renders an amount the way every API response shows it, e.g. "380.00".
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(p), Money(p.Price)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Total string `json:"total"`
	}{plain(o), Money(o.Total)})
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(i), Money(i.Price)})
}
