package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeTx struct {
	calls []execCall
	err   error
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

type fakeTxManager struct{ tx *fakeTx }

func (m *fakeTxManager) RunMaster(ctx context.Context, fn func(context.Context, db.Transaction) error) error {
	return fn(ctx, m.tx)
}

func TestJournal_MigrateAndInsert(t *testing.T) {
	tx := &fakeTx{}
	j := NewJournal(&fakeTxManager{tx: tx})
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return at }

	require.NoError(t, j.Migrate(context.Background()))
	j.Notify(context.Background(), "BTC/USDT", "RSI is 75.00", models.SideSell)

	require.Len(t, tx.calls, 2)
	assert.Contains(t, tx.calls[0].sql, "CREATE TABLE IF NOT EXISTS alert_journal")
	assert.Contains(t, tx.calls[1].sql, "INSERT INTO alert_journal")
	assert.Equal(t, []any{"BTC/USDT", "SELL", "RSI is 75.00", at}, tx.calls[1].args)
}

func TestJournal_ErrorsAreContained(t *testing.T) {
	tx := &fakeTx{err: errors.New("connection refused")}
	j := NewJournal(&fakeTxManager{tx: tx})

	assert.Error(t, j.Migrate(context.Background()))
	assert.NotPanics(t, func() {
		j.Notify(context.Background(), "AAPL", "RSI is 25.00", models.SideBuy)
	})
}
