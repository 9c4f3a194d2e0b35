package memory

import (
	"context"
	"sync"

	domainerror "github.com/0xsj/overwatch-nickserv/internal/domain/error"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

// NickRepository implements repository.NickRepository in process memory.
// Records do not survive a restart.
type NickRepository struct {
	mu    sync.RWMutex
	nicks map[string]model.NickRecord
}

// NewNickRepository creates an empty NickRepository.
func NewNickRepository() *NickRepository {
	return &NickRepository{
		nicks: make(map[string]model.NickRecord),
	}
}

var _ repository.NickRepository = (*NickRepository)(nil)

func (r *NickRepository) FindByNick(ctx context.Context, nick string) (model.NickRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.nicks[nick]
	if !ok {
		return model.NickRecord{}, repository.ErrNotFound
	}
	return record, nil
}

func (r *NickRepository) Create(ctx context.Context, record model.NickRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nicks[record.Nick()]; ok {
		return repository.ErrConflict
	}
	r.nicks[record.Nick()] = record
	return nil
}

func (r *NickRepository) Replace(ctx context.Context, oldNick string, record model.NickRecord) error {
	if record.Nick() != oldNick {
		return domainerror.ErrNickMismatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.nicks, oldNick)
	r.nicks[record.Nick()] = record
	return nil
}

func (r *NickRepository) Save(ctx context.Context, record model.NickRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nicks[record.Nick()]; !ok {
		return repository.ErrNotFound
	}
	r.nicks[record.Nick()] = record
	return nil
}

// Len returns the number of stored records.
func (r *NickRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nicks)
}
