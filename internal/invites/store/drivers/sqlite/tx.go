package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite/queries"
)

type txStore struct {
	tx *sql.Tx
	q  *queries.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx: tx,
		q:  queries.New(tx),
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer Store owns the connection pool.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return sql.ErrTxDone }

func (t *txStore) Invites() store.Invites         { return &invitesRepo{q: t.q} }
func (t *txStore) Approvals() store.Approvals     { return &approvalsRepo{q: t.q} }
func (t *txStore) Users() store.Users             { return &usersRepo{q: t.q} }
func (t *txStore) Children() store.Children       { return &childrenRepo{q: t.q} }
func (t *txStore) Cliqs() store.Cliqs             { return &cliqsRepo{q: t.q} }
func (t *txStore) Memberships() store.Memberships { return &membershipsRepo{q: t.q} }
func (t *txStore) Audit() store.Audit             { return &auditRepo{q: t.q} }

// ApplyMigrations is a no-op; migrations run on the Store before any tx.
func (t *txStore) ApplyMigrations() error { return nil }
