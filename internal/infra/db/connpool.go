package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"applytrack/internal/resilience/pool"
)

// resetTimeout bounds the rollback issued when a connection is released
// mid-transaction. Release must stay cheap.
const resetTimeout = 3 * time.Second

// NewConnPool builds a resilience pool of dedicated pgx connections for
// callers that need an exclusive handle (report exports, LISTEN/NOTIFY).
// The DSN is deployment configuration; the pool itself is agnostic to what
// its factory dials.
func NewConnPool(cfg pool.Config, dsn string) (*pool.Pool[*pgx.Conn], error) {
	factory := func(ctx context.Context) (*pgx.Conn, error) {
		return pgx.Connect(ctx, dsn)
	}

	reset := func(conn *pgx.Conn) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		// Abort any unit of work the caller left pending so the next
		// caller gets a clean handle.
		if conn.PgConn().TxStatus() != 'I' {
			ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
			defer cancel()
			if _, err := conn.Exec(ctx, "ROLLBACK"); err != nil {
				return err
			}
		}
		return nil
	}

	dispose := func(conn *pgx.Conn) error {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()
		return conn.Close(ctx)
	}

	return pool.New(cfg, factory,
		pool.WithReset[*pgx.Conn](reset),
		pool.WithDisposer[*pgx.Conn](dispose),
	)
}
