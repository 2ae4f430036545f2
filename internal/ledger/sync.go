package ledger

import (
	"context"
	"errors"
	"fmt"

	"finance-client/internal/api"
	"finance-client/internal/log"
	"finance-client/internal/models"

	"golang.org/x/sync/errgroup"
)

// begin returns the current session epoch and period, or ErrNotAuthenticated.
func (c *Controller) begin() (uint64, api.Period, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, api.Period{}, ErrNotAuthenticated
	}
	return c.epoch, c.period, nil
}

// apply runs fn under the lock if the session that started the request is
// still current, then notifies subscribers. Results from an older session are
// dropped.
func (c *Controller) apply(epoch uint64, fn func()) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return false
	}
	fn()
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)
	return true
}

// fail logs err, logs out on 401 and wraps err with op.
func (c *Controller) fail(ctx context.Context, epoch uint64, op string, err error) error {
	c.logger.Failure(ctx, op, err)
	if errors.Is(err, api.ErrUnauthorized) {
		c.expire(ctx, epoch)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FetchTransactions replaces the cached transactions.
func (c *Controller) FetchTransactions(ctx context.Context) error {
	epoch, period, err := c.begin()
	if err != nil {
		return err
	}
	txs, err := c.backend.ListTransactions(ctx, period)
	if err != nil {
		return c.fail(ctx, epoch, "fetch transactions", err)
	}
	if c.apply(epoch, func() { c.transactions = txs }) {
		c.logger.Debug("transactions replaced", log.FieldCount, len(txs))
	}
	return nil
}

// FetchCategories replaces the cached categories.
func (c *Controller) FetchCategories(ctx context.Context) error {
	epoch, _, err := c.begin()
	if err != nil {
		return err
	}
	cats, err := c.backend.ListCategories(ctx)
	if err != nil {
		return c.fail(ctx, epoch, "fetch categories", err)
	}
	if c.apply(epoch, func() { c.categories = cats }) {
		c.logger.Debug("categories replaced", log.FieldCount, len(cats))
	}
	return nil
}

// FetchSummary replaces the cached summary.
func (c *Controller) FetchSummary(ctx context.Context) error {
	epoch, period, err := c.begin()
	if err != nil {
		return err
	}
	sum, err := c.backend.Summary(ctx, period)
	if err != nil {
		return c.fail(ctx, epoch, "fetch summary", err)
	}
	if c.apply(epoch, func() { c.summary = &sum }) {
		c.logger.Debug("summary replaced")
	}
	return nil
}

// Reload clears every collection and fetches all three again.
func (c *Controller) Reload(ctx context.Context) error {
	epoch, _, err := c.begin()
	if err != nil {
		return err
	}
	c.apply(epoch, c.clearLocked)
	return c.refetch(ctx, c.FetchTransactions, c.FetchCategories, c.FetchSummary)
}

// refetch runs the given fetches concurrently. It is a no-op once the
// session is gone.
func (c *Controller) refetch(ctx context.Context, fetches ...func(context.Context) error) error {
	if !c.Authenticated() {
		return nil
	}
	var g errgroup.Group
	for _, fetch := range fetches {
		g.Go(func() error { return fetch(ctx) })
	}
	return g.Wait()
}

// mutated refetches after a mutation. Requests rejected before reaching the
// server change nothing and skip the refetch.
func (c *Controller) mutated(ctx context.Context, err error, fetches ...func(context.Context) error) error {
	var verrs api.ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}
	if refetchErr := c.refetch(ctx, fetches...); err == nil {
		err = refetchErr
	}
	return err
}

// CreateTransaction records a transaction, then refetches transactions and
// the summary.
func (c *Controller) CreateTransaction(ctx context.Context, n api.NewTransaction) (*models.Transaction, error) {
	epoch, _, err := c.begin()
	if err != nil {
		return nil, err
	}
	created, err := c.backend.CreateTransaction(ctx, n)
	if err != nil {
		err = c.fail(ctx, epoch, "create transaction", err)
	}
	return created, c.mutated(ctx, err, c.FetchTransactions, c.FetchSummary)
}

// DeleteTransaction removes a transaction, then refetches transactions and
// the summary.
func (c *Controller) DeleteTransaction(ctx context.Context, id int64) error {
	epoch, _, err := c.begin()
	if err != nil {
		return err
	}
	err = c.backend.DeleteTransaction(ctx, id)
	if err != nil {
		err = c.fail(ctx, epoch, "delete transaction", err)
	}
	return c.mutated(ctx, err, c.FetchTransactions, c.FetchSummary)
}

// CreateCategory adds a category, then refetches categories.
func (c *Controller) CreateCategory(ctx context.Context, n api.NewCategory) (*models.Category, error) {
	epoch, _, err := c.begin()
	if err != nil {
		return nil, err
	}
	created, err := c.backend.CreateCategory(ctx, n)
	if err != nil {
		err = c.fail(ctx, epoch, "create category", err)
	}
	return created, c.mutated(ctx, err, c.FetchCategories)
}

// DeleteCategory removes a category, then refetches categories.
func (c *Controller) DeleteCategory(ctx context.Context, id int64) error {
	epoch, _, err := c.begin()
	if err != nil {
		return err
	}
	err = c.backend.DeleteCategory(ctx, id)
	if err != nil {
		err = c.fail(ctx, epoch, "delete category", err)
	}
	return c.mutated(ctx, err, c.FetchCategories)
}
