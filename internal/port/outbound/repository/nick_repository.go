package repository

import (
	"context"

	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
)

// NickRepository defines the interface for nick record persistence.
// Records are keyed by the case-folded nick. Every operation is durable on return.
type NickRepository interface {
	// FindByNick retrieves the record for a nick.
	// Returns ErrNotFound if no record exists.
	FindByNick(ctx context.Context, nick string) (model.NickRecord, error)

	// Create persists a new record.
	// Returns ErrConflict if a record for the nick already exists.
	Create(ctx context.Context, record model.NickRecord) error

	// Replace atomically destroys the record for oldNick and creates record in its place.
	// record must carry the same nick. Readers never observe the nick as absent.
	Replace(ctx context.Context, oldNick string, record model.NickRecord) error

	// Save updates the state and activeAt of an existing record.
	// Returns ErrNotFound if the record does not exist.
	Save(ctx context.Context, record model.NickRecord) error
}
