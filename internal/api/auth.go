package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"finance-client/internal/models"
	"finance-client/internal/wire"
)

const (
	pathRegister = "/api/auth/register"
	pathLogin    = "/api/auth/login"
	pathProfile  = "/api/auth/profile"
)

var errNoToken = errors.New("auth response carries no token")

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UnmarshalJSON decodes an auth response accepting either key casing.
func (a *AuthResult) UnmarshalJSON(data []byte) error {
	o, err := wire.Decode(data)
	if err != nil {
		return fmt.Errorf("decode auth result: %w", err)
	}
	if err := o.Fields(
		wire.Field{Key: "token", Dst: &a.Token},
		wire.Field{Key: "user", Dst: &a.User},
	); err != nil {
		return fmt.Errorf("decode auth result: %w", err)
	}
	if a.Token == "" {
		return errNoToken
	}
	return nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, r Registration) (*AuthResult, error) {
	if err := validateRequest(r); err != nil {
		return nil, err
	}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, pathRegister, nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, cr Credentials) (*AuthResult, error) {
	if err := validateRequest(cr); err != nil {
		return nil, err
	}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, pathLogin, nil, cr, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the user the current token belongs to.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, pathProfile, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
