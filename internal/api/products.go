package api

import (
	"context"
	"net/http"
	"strconv"

	"finance-client/internal/models"
)

const pathProducts = "/api/products"

func productPath(id int64) string {
	return pathProducts + "/" + strconv.FormatInt(id, 10)
}

// ListProducts returns the catalogue. Product routes need no token.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, pathProducts, nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct adds a product.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	var out models.Product
	if err := c.do(ctx, http.MethodPost, pathProducts, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces a product's fields.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	var out models.Product
	if err := c.do(ctx, http.MethodPut, productPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil, nil)
}
