package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionDecodeSnakeCase(t *testing.T) {
	body := `{
		"id": 12,
		"amount": 42.5,
		"type": "expense",
		"description": "Groceries",
		"date": "2025-03-14T00:00:00Z",
		"category_name": "Food"
	}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))

	assert.Equal(t, int64(12), tx.ID)
	assert.True(t, decimal.RequireFromString("42.5").Equal(tx.Amount))
	assert.Equal(t, Expense, tx.Type)
	assert.Equal(t, "Groceries", tx.Description)
	assert.Equal(t, "2025-03-14", tx.Date.String())
	assert.Equal(t, "Food", tx.CategoryName)
	assert.Nil(t, tx.CategoryID)
}

func TestTransactionDecodeCapitalized(t *testing.T) {
	body := `{"ID": 3, "Amount": "10", "Type": "income", "Description": "Salary", "Date": "2025-01-31", "CategoryID": 9, "UserID": 1}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))

	assert.Equal(t, int64(3), tx.ID)
	assert.Equal(t, Income, tx.Type)
	require.NotNil(t, tx.CategoryID)
	assert.Equal(t, int64(9), *tx.CategoryID)
	assert.Equal(t, int64(1), tx.UserID)
}

func TestTransactionPrefersCapitalizedWhenBothPresent(t *testing.T) {
	body := `{"ID": 5, "id": 6, "Description": "upper", "description": "lower"}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))

	assert.Equal(t, int64(5), tx.ID)
	assert.Equal(t, "upper", tx.Description)
}

func TestTransactionEmbeddedCategory(t *testing.T) {
	body := `{"id": 1, "amount": 3, "type": "expense", "description": "Bus", "date": "2025-02-02T10:00:00+03:00",
		"category": {"ID": 4, "Name": "Transport", "type": "expense"}}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))

	assert.Equal(t, "Transport", tx.CategoryName)
	require.NotNil(t, tx.CategoryID)
	assert.Equal(t, int64(4), *tx.CategoryID)
	assert.Equal(t, "2025-02-02", tx.Date.String())
}

func TestTransactionListDecodesNull(t *testing.T) {
	var txs []Transaction
	require.NoError(t, json.Unmarshal([]byte(`null`), &txs))
	assert.Empty(t, txs)
}

func TestCategoryDecode(t *testing.T) {
	var cats []Category
	body := `[{"ID": 1, "Name": "Rent", "Type": "expense", "Color": "#ff0000"}, {"id": 2, "name": "Salary", "type": "income"}]`
	require.NoError(t, json.Unmarshal([]byte(body), &cats))

	require.Len(t, cats, 2)
	assert.Equal(t, Category{ID: 1, Name: "Rent", Type: Expense, Color: "#ff0000"}, cats[0])
	assert.Equal(t, Category{ID: 2, Name: "Salary", Type: Income}, cats[1])
}

func TestSummaryDecode(t *testing.T) {
	var s Summary
	require.NoError(t, json.Unmarshal([]byte(`{"TotalIncome": 100, "total_expense": 40.25, "balance": 59.75}`), &s))

	assert.Equal(t, "100", s.TotalIncome.String())
	assert.Equal(t, "40.25", s.TotalExpense.String())
	assert.Equal(t, "59.75", s.Balance.String())
}

func TestDecodeRejectsMalformedValue(t *testing.T) {
	var c Category
	err := json.Unmarshal([]byte(`{"id": "abc"}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode category")
}

func TestTransactionSigned(t *testing.T) {
	tx := Transaction{Amount: decimal.NewFromInt(5), Type: Expense}
	assert.Equal(t, "-5", tx.Signed().String())

	tx.Type = Income
	assert.Equal(t, "5", tx.Signed().String())
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", User{Email: "ada@example.com", FirstName: "Ada"}.DisplayName())
	assert.Equal(t, "ada@example.com", User{Email: "ada@example.com"}.DisplayName())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, Session{}.Expired(now), "unknown expiry never expires")
	assert.False(t, Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, Session{ExpiresAt: now}.Expired(now))
}

func TestDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-03-01", "2025-03-01", false},
		{"2025-03-01T23:30:00Z", "2025-03-01", false},
		{"2025-03-01T01:30:00+05:00", "2025-03-01", false},
		{"03/01/2025", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}

	out, err := json.Marshal(NewDate(2024, time.February, 29))
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}
