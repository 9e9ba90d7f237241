package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRendersTwoDecimals(t *testing.T) {
	product := Product{ID: 1, Name: "Adobo", Price: decimal.RequireFromString("150"), Category: CategoryMainCourses}
	raw, err := json.Marshal(&product)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "150.00", body["price"])
	assert.Equal(t, "Adobo", body["name"])

	order := Order{
		ID:     9,
		Total:  decimal.RequireFromString("380"),
		Status: StatusPending,
		Items: []OrderItem{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("150"), Name: "Adobo"},
			{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("80.5"), Name: "Halo-halo"},
		},
	}
	raw, err = json.Marshal(order)
	require.NoError(t, err)

	var decoded struct {
		ID     uint   `json:"id"`
		Total  string `json:"total"`
		Status string `json:"status"`
		Items  []struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, uint(9), decoded.ID)
	assert.Equal(t, "380.00", decoded.Total)
	assert.Equal(t, "pending", decoded.Status)
	require.Len(t, decoded.Items, 2)
	assert.Equal(t, "150.00", decoded.Items[0].Price)
	assert.Equal(t, "80.50", decoded.Items[1].Price)
}
