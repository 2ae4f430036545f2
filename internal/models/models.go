package models

import (
	"fmt"
	"time"

	"finance-client/internal/wire"

	"github.com/shopspring/decimal"
)

// TxType distinguishes income from expense records.
type TxType string

const (
	Expense TxType = "expense"
	Income  TxType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TxType) Valid() bool {
	return t == Expense || t == Income
}

// Transaction represents a single income or expense record.
type Transaction struct {
	ID           int64           `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TxType          `json:"type"`
	Description  string          `json:"description"`
	Date         Date            `json:"date"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	UserID       int64           `json:"user_id,omitempty"`
}

// Signed returns the amount with a negative sign for expenses.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// UnmarshalJSON decodes a transaction accepting either key casing.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	o, err := wire.Decode(data)
	if err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}
	var category *Category
	if err := o.Fields(
		wire.Field{Key: "id", Dst: &t.ID},
		wire.Field{Key: "amount", Dst: &t.Amount},
		wire.Field{Key: "type", Dst: &t.Type},
		wire.Field{Key: "description", Dst: &t.Description},
		wire.Field{Key: "date", Dst: &t.Date},
		wire.Field{Key: "category_id", Dst: &t.CategoryID},
		wire.Field{Key: "category_name", Dst: &t.CategoryName},
		wire.Field{Key: "user_id", Dst: &t.UserID},
		wire.Field{Key: "category", Dst: &category},
	); err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}
	// Create responses embed the category instead of naming it.
	if category != nil {
		if t.CategoryName == "" {
			t.CategoryName = category.Name
		}
		if t.CategoryID == nil && category.ID != 0 {
			id := category.ID
			t.CategoryID = &id
		}
	}
	return nil
}

// Category groups transactions of one type.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   TxType `json:"type"`
	Color  string `json:"color,omitempty"`
	UserID int64  `json:"user_id,omitempty"`
}

// UnmarshalJSON decodes a category accepting either key casing.
func (c *Category) UnmarshalJSON(data []byte) error {
	o, err := wire.Decode(data)
	if err != nil {
		return fmt.Errorf("decode category: %w", err)
	}
	if err := o.Fields(
		wire.Field{Key: "id", Dst: &c.ID},
		wire.Field{Key: "name", Dst: &c.Name},
		wire.Field{Key: "type", Dst: &c.Type},
		wire.Field{Key: "color", Dst: &c.Color},
		wire.Field{Key: "user_id", Dst: &c.UserID},
	); err != nil {
		return fmt.Errorf("decode category: %w", err)
	}
	return nil
}

// Summary is the server-computed aggregate for the current user.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// UnmarshalJSON decodes a summary accepting either key casing.
func (s *Summary) UnmarshalJSON(data []byte) error {
	o, err := wire.Decode(data)
	if err != nil {
		return fmt.Errorf("decode summary: %w", err)
	}
	if err := o.Fields(
		wire.Field{Key: "total_income", Dst: &s.TotalIncome},
		wire.Field{Key: "total_expense", Dst: &s.TotalExpense},
		wire.Field{Key: "balance", Dst: &s.Balance},
	); err != nil {
		return fmt.Errorf("decode summary: %w", err)
	}
	return nil
}

// User is the identity returned alongside an auth token.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName returns the user's full name, falling back to the email.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// UnmarshalJSON decodes a user accepting either key casing.
func (u *User) UnmarshalJSON(data []byte) error {
	o, err := wire.Decode(data)
	if err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	if err := o.Fields(
		wire.Field{Key: "id", Dst: &u.ID},
		wire.Field{Key: "email", Dst: &u.Email},
		wire.Field{Key: "first_name", Dst: &u.FirstName},
		wire.Field{Key: "last_name", Dst: &u.LastName},
	); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	return nil
}

// Product belongs to the catalogue exposed by the earlier API iteration.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// UnmarshalJSON decodes a product accepting either key casing.
func (p *Product) UnmarshalJSON(data []byte) error {
	o, err := wire.Decode(data)
	if err != nil {
		return fmt.Errorf("decode product: %w", err)
	}
	if err := o.Fields(
		wire.Field{Key: "id", Dst: &p.ID},
		wire.Field{Key: "name", Dst: &p.Name},
		wire.Field{Key: "description", Dst: &p.Description},
		wire.Field{Key: "price", Dst: &p.Price},
	); err != nil {
		return fmt.Errorf("decode product: %w", err)
	}
	return nil
}

// Session represents the persisted bearer credential for one API.
type Session struct {
	APIURL     string    `json:"api_url"`
	Token      string    `json:"-"`
	User       User      `json:"user"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// Expired reports whether the session carries a known expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
