package service

import (
	"context"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"

	"github.com/pkg/errors"
)

const (
	journalSchema = `CREATE TABLE IF NOT EXISTS alert_journal (
	id         BIGSERIAL PRIMARY KEY,
	symbol     TEXT        NOT NULL,
	side       TEXT        NOT NULL,
	message    TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`
	journalInsert = `INSERT INTO alert_journal (symbol, side, message, created_at) VALUES ($1, $2, $3, $4)`
)

// Journal пишет каждый отправленный алерт в Postgres. Только запись, на решения не влияет.
type Journal struct {
	tx  db.TxManager
	now func() time.Time
}

func NewJournal(tx db.TxManager) *Journal {
	return &Journal{tx: tx, now: time.Now}
}

// Migrate создаёт таблицу, если её нет.
func (j *Journal) Migrate(ctx context.Context) error {
	return j.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, journalSchema)
		return errors.Wrap(err, "journal migrate")
	})
}

func (j *Journal) Notify(ctx context.Context, symbol, message string, side models.Side) {
	err := j.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, journalInsert, symbol, string(side), message, j.now().UTC())
		return err
	})
	if err != nil {
		logger.Error("[ALERT] journal %s %s: %v", side, symbol, err)
	}
}

func (j *Journal) Close() error { return nil }
