package memory

import (
	"context"
	"sync"

	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
)

type journalKey struct{}

// journal records how to undo every store mutation made inside a transaction
type journal struct {
	client *Client
	id     string
	undo   []func()
}

func (j *journal) rollbackTo(mark int) {
	for i := len(j.undo) - 1; i >= mark; i-- {
		j.undo[i]()
	}
	j.undo = j.undo[:mark]
}

// Client gives the in-memory stores the same transactional contract as
// postgres.DB. Transactions are serialized by a single lock and mutations
// are undone in reverse order when the transaction function fails.
type Client struct {
	mu     sync.Mutex
	logger *logger.Logger
}

var _ postgres.IClient = (*Client)(nil)

// NewClient creates a new in-memory transaction client
func NewClient(logger *logger.Logger) *Client {
	return &Client{logger: logger}
}

func (c *Client) journalFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok || j.client != c {
		return nil, false
	}
	return j, true
}

// WithTx executes fn inside a transaction. Nested calls behave like
// savepoints: a failing inner function only undoes its own mutations.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if j, ok := c.journalFrom(ctx); ok {
		mark := len(j.undo)
		defer func() {
			if r := recover(); r != nil {
				j.rollbackTo(mark)
				panic(r)
			}
		}()
		if err = fn(ctx); err != nil {
			j.rollbackTo(mark)
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	j := &journal{client: c, id: types.GenerateUUID()}
	ctx = context.WithValue(ctx, journalKey{}, j)

	c.logger.Debugw("starting memory transaction", "tx_id", j.id)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorw("panic in memory transaction", "tx_id", j.id, "panic", r)
			j.rollbackTo(0)
			panic(r)
		}
	}()

	if err = fn(ctx); err != nil {
		c.logger.Debugw("memory transaction aborted",
			"tx_id", j.id,
			"undo_steps", len(j.undo),
			"error", err,
		)
		j.rollbackTo(0)
		return err
	}

	c.logger.Debugw("committing memory transaction", "tx_id", j.id)
	return nil
}

// view runs a store read. Outside a transaction it waits for the
// transaction lock so it never observes uncommitted mutations.
func view[R any](ctx context.Context, c *Client, fn func() R) R {
	if _, ok := c.journalFrom(ctx); ok {
		return fn()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return fn()
}

// mutate runs a store mutation. Inside a transaction it is journaled for
// rollback, outside one it takes the transaction lock so it never
// interleaves with an open transaction.
func mutate[T any](ctx context.Context, c *Client, s *Store[T], key string, fn MutateFunc[T]) error {
	if j, ok := c.journalFrom(ctx); ok {
		prev, existed, err := s.Mutate(key, fn)
		if err != nil {
			return err
		}
		j.undo = append(j.undo, func() { s.restore(key, prev, existed) })
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, _, err := s.Mutate(key, fn)
	return err
}
