package api

import (
	"context"
	"net/http"
	"strconv"

	"finance-client/internal/models"
)

const (
	pathTransactions = "/api/transactions"
	pathSummary      = "/api/transactions/summary"
	pathCategories   = "/api/categories"
)

// ListTransactions returns the user's transactions within p. A null body is
// an empty list.
func (c *Client) ListTransactions(ctx context.Context, p Period) ([]models.Transaction, error) {
	var out []models.Transaction
	if err := c.do(ctx, http.MethodGet, pathTransactions, p.query(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Transaction{}
	}
	return out, nil
}

// Summary returns income and expense totals within p.
func (c *Client) Summary(ctx context.Context, p Period) (models.Summary, error) {
	var out models.Summary
	err := c.do(ctx, http.MethodGet, pathSummary, p.query(), nil, &out)
	return out, err
}

// CreateTransaction records a new transaction.
func (c *Client) CreateTransaction(ctx context.Context, n NewTransaction) (*models.Transaction, error) {
	if err := validateRequest(n); err != nil {
		return nil, err
	}
	var out models.Transaction
	if err := c.do(ctx, http.MethodPost, pathTransactions, nil, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTransaction removes a transaction by id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathTransactions+"/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ListCategories returns the user's categories.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, http.MethodGet, pathCategories, nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Category{}
	}
	return out, nil
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, n NewCategory) (*models.Category, error) {
	if err := validateRequest(n); err != nil {
		return nil, err
	}
	var out models.Category
	if err := c.do(ctx, http.MethodPost, pathCategories, nil, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory removes a category by id.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathCategories+"/"+strconv.FormatInt(id, 10), nil, nil, nil)
}
