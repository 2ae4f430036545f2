package api

import (
	"encoding/json"
	"net/url"
	"time"

	"finance-client/internal/models"

	"github.com/shopspring/decimal"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up form.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// Period restricts transaction lists and summaries to a date window. Zero
// bounds are open.
type Period struct {
	From models.Date
	To   models.Date
}

func (p Period) query() url.Values {
	q := url.Values{}
	if !p.From.IsZero() {
		q.Set("from", p.From.String())
	}
	if !p.To.IsZero() {
		q.Set("to", p.To.String())
	}
	return q
}

// NewTransaction is the body of a create-transaction request.
type NewTransaction struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        models.TxType   `json:"type" validate:"required,oneof=income expense"`
	Description string          `json:"description" validate:"required"`
	Date        models.Date     `json:"date"`
	CategoryID  *int64          `json:"category_id,omitempty"`
}

// MarshalJSON sends the amount as a JSON number and the date as an RFC3339
// timestamp at midnight UTC, which is what the backend parses.
func (n NewTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount      json.Number   `json:"amount"`
		Type        models.TxType `json:"type"`
		Description string        `json:"description"`
		Date        string        `json:"date"`
		CategoryID  *int64        `json:"category_id,omitempty"`
	}{
		Amount:      json.Number(n.Amount.String()),
		Type:        n.Type,
		Description: n.Description,
		Date:        models.NewDate(n.Date.Year(), n.Date.Month(), n.Date.Day()).Format(time.RFC3339),
		CategoryID:  n.CategoryID,
	})
}

// NewCategory is the body of a create-category request.
type NewCategory struct {
	Name  string        `json:"name" validate:"required"`
	Type  models.TxType `json:"type" validate:"required,oneof=income expense"`
	Color string        `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// ProductInput is the body of product create and update requests.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// MarshalJSON sends the price as a JSON number.
func (p ProductInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Price       json.Number `json:"price"`
	}{p.Name, p.Description, json.Number(p.Price.String())})
}
