package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

const (
	selectNickSQL = `SELECT nick, owner, credential, state, created_at, active_at FROM nicks WHERE nick = ?`
	insertNickSQL = `INSERT INTO nicks (nick, owner, credential, state, created_at, active_at)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (nick) DO NOTHING`
	deleteNickSQL = `DELETE FROM nicks WHERE nick = ?`
	updateNickSQL = `UPDATE nicks SET state = ?, active_at = ? WHERE nick = ?`
)

// nickRepository implements repository.NickRepository on SQLite.
type nickRepository struct {
	db *sql.DB
}

// NewNickRepository creates a new NickRepository backed by db.
// db must already be migrated, see Open.
func NewNickRepository(db *sql.DB) repository.NickRepository {
	return &nickRepository{db: db}
}

func (r *nickRepository) FindByNick(ctx context.Context, nick string) (model.NickRecord, error) {
	var row nickRow
	err := r.db.QueryRowContext(ctx, selectNickSQL, nick).
		Scan(&row.nick, &row.owner, &row.credential, &row.state, &row.createdAt, &row.activeAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NickRecord{}, repository.ErrNotFound
		}
		return model.NickRecord{}, fmt.Errorf("select nick: %w", err)
	}
	return row.toModel(), nil
}

func (r *nickRepository) Create(ctx context.Context, record model.NickRecord) error {
	return insertNick(ctx, r.db, record)
}

func (r *nickRepository) Replace(ctx context.Context, oldNick string, record model.NickRecord) error {
	if record.Nick() != oldNick {
		return domainerror.ErrNickMismatch
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteNickSQL, oldNick); err != nil {
		return fmt.Errorf("delete nick: %w", err)
	}
	if err := insertNick(ctx, tx, record); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *nickRepository) Save(ctx context.Context, record model.NickRecord) error {
	res, err := r.db.ExecContext(ctx, updateNickSQL, record.State().String(), record.ActiveAtUnix(), record.Nick())
	if err != nil {
		return fmt.Errorf("update nick: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNick(ctx context.Context, db execer, record model.NickRecord) error {
	res, err := db.ExecContext(ctx, insertNickSQL,
		record.Nick(),
		record.Owner(),
		record.Credential(),
		record.State().String(),
		record.CreatedAtUnix(),
		record.ActiveAtUnix(),
	)
	if err != nil {
		return fmt.Errorf("insert nick: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrConflict
	}
	return nil
}

type nickRow struct {
	nick       string
	owner      string
	credential string
	state      string
	createdAt  int64
	activeAt   int64
}

func (r nickRow) toModel() model.NickRecord {
	return model.ReconstructNickRecord(
		r.nick,
		r.owner,
		r.credential,
		model.NickState(r.state),
		r.createdAt,
		r.activeAt,
	)
}
