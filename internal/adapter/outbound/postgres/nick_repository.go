package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

const (
	findNickSQL = `
SELECT nick, owner, credential, state, created_at, active_at
FROM nicks
WHERE nick = $1`

	createNickSQL = `
INSERT INTO nicks (nick, owner, credential, state, created_at, active_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (nick) DO NOTHING`

	deleteNickSQL = `DELETE FROM nicks WHERE nick = $1`

	saveNickSQL = `
UPDATE nicks
SET state = $2, active_at = $3
WHERE nick = $1`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// nickRepository implements repository.NickRepository.
type nickRepository struct {
	pool *pgxpool.Pool
}

// NewNickRepository creates a new NickRepository.
func NewNickRepository(pool *pgxpool.Pool) repository.NickRepository {
	return &nickRepository{
		pool: pool,
	}
}

func (r *nickRepository) FindByNick(ctx context.Context, nick string) (model.NickRecord, error) {
	var row nickRow
	err := r.pool.QueryRow(ctx, findNickSQL, nick).Scan(
		&row.Nick,
		&row.Owner,
		&row.Credential,
		&row.State,
		&row.CreatedAt,
		&row.ActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NickRecord{}, repository.ErrNotFound
		}
		return model.NickRecord{}, err
	}
	return toNickModel(row), nil
}

func (r *nickRepository) Create(ctx context.Context, record model.NickRecord) error {
	return createNick(ctx, r.pool, record)
}

func (r *nickRepository) Replace(ctx context.Context, oldNick string, record model.NickRecord) error {
	if record.Nick() != oldNick {
		return domainerror.ErrNickMismatch
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteNickSQL, oldNick); err != nil {
			return fmt.Errorf("delete nick: %w", err)
		}
		return createNick(ctx, tx, record)
	})
}

func (r *nickRepository) Save(ctx context.Context, record model.NickRecord) error {
	tag, err := r.pool.Exec(ctx, saveNickSQL,
		record.Nick(),
		record.State().String(),
		record.ActiveAtUnix(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func createNick(ctx context.Context, q querier, record model.NickRecord) error {
	tag, err := q.Exec(ctx, createNickSQL,
		record.Nick(),
		record.Owner(),
		record.Credential(),
		record.State().String(),
		record.CreatedAtUnix(),
		record.ActiveAtUnix(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}
