package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/memory"
	appcommand "github.com/0xsj/overwatch-nickserv/internal/app/command"
	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/port/inbound/command"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// --- Fakes ---

type sentConfirmation struct {
	Nick  string
	Email string
	Token string
}

type fakeConfirmation struct {
	mu   sync.Mutex
	sent []sentConfirmation
	err  error
}

func (f *fakeConfirmation) SendConfirmation(ctx context.Context, nick, email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentConfirmation{Nick: nick, Email: email, Token: token})
	return nil
}

func (f *fakeConfirmation) Sent() []sentConfirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentConfirmation(nil), f.sent...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, evt event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakePublisher) PublishAll(ctx context.Context, events []event.Event) error {
	for _, evt := range events {
		if err := f.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePublisher) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.events))
	for i, evt := range f.events {
		types[i] = evt.EventType()
	}
	return types
}

// stubRepository wraps the memory repository to count calls and inject failures.
type stubRepository struct {
	*memory.NickRepository

	mu      sync.Mutex
	Calls   struct{ Find, Create, Replace, Save int }
	Errors  struct{ Find, Create, Replace, Save error }
	delay   time.Duration
	active  int
	maxSeen int
}

func newStubRepository() *stubRepository {
	return &stubRepository{NickRepository: memory.NewNickRepository()}
}

func (r *stubRepository) enter() {
	r.mu.Lock()
	r.active++
	if r.active > r.maxSeen {
		r.maxSeen = r.active
	}
	r.mu.Unlock()
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
}

func (r *stubRepository) leave() {
	r.mu.Lock()
	r.active--
	r.mu.Unlock()
}

func (r *stubRepository) FindByNick(ctx context.Context, nick string) (model.NickRecord, error) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	r.Calls.Find++
	err := r.Errors.Find
	r.mu.Unlock()
	if err != nil {
		return model.NickRecord{}, err
	}
	return r.NickRepository.FindByNick(ctx, nick)
}

func (r *stubRepository) Create(ctx context.Context, record model.NickRecord) error {
	r.mu.Lock()
	r.Calls.Create++
	err := r.Errors.Create
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.NickRepository.Create(ctx, record)
}

func (r *stubRepository) Replace(ctx context.Context, oldNick string, record model.NickRecord) error {
	r.mu.Lock()
	r.Calls.Replace++
	err := r.Errors.Replace
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.NickRepository.Replace(ctx, oldNick, record)
}

func (r *stubRepository) Save(ctx context.Context, record model.NickRecord) error {
	r.mu.Lock()
	r.Calls.Save++
	err := r.Errors.Save
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.NickRepository.Save(ctx, record)
}

var _ repository.NickRepository = (*stubRepository)(nil)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(now time.Time) *clock { return &clock{now: now} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// --- Fixture ---

type fixture struct {
	repo         *stubRepository
	locker       *memory.NickLocker
	confirmation *fakeConfirmation
	publisher    *fakePublisher
	clock        *clock
	policy       model.ExpiryPolicy

	register     command.RegisterNickHandler
	authenticate command.AuthenticateNickHandler
	identify     command.IdentifyNickHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:         newStubRepository(),
		locker:       memory.NewNickLocker(),
		confirmation: &fakeConfirmation{},
		publisher:    &fakePublisher{},
		clock:        newClock(epoch),
		policy:       model.DefaultExpiryPolicy(),
	}
	logger := log.NewPretty(log.DefaultConfig())

	f.register = appcommand.NewRegisterNickHandler(f.repo, f.locker, f.confirmation, f.publisher, f.policy, f.clock.Now, logger)
	f.authenticate = appcommand.NewAuthenticateNickHandler(f.repo, f.locker, f.publisher, f.policy, f.clock.Now, logger)
	f.identify = appcommand.NewIdentifyNickHandler(f.repo)
	return f
}

func (f *fixture) mustRegister(t *testing.T, nick, owner, password string) command.RegisterNickResult {
	t.Helper()
	result, err := f.register.Handle(context.Background(), command.RegisterNick{
		Nick:     nick,
		Owner:    owner,
		Password: password,
		Email:    owner + "@example.com",
	})
	if err != nil {
		t.Fatalf("REGISTER %s error = %v", nick, err)
	}
	return result
}

func (f *fixture) tokenFor(t *testing.T, nick string) string {
	t.Helper()
	record, err := f.repo.NickRepository.FindByNick(context.Background(), model.NormalizeNick(nick))
	if err != nil {
		t.Fatalf("FindByNick(%s) error = %v", nick, err)
	}
	return model.DeriveToken(record)
}

func (f *fixture) record(t *testing.T, nick string) model.NickRecord {
	t.Helper()
	record, err := f.repo.NickRepository.FindByNick(context.Background(), model.NormalizeNick(nick))
	if err != nil {
		t.Fatalf("FindByNick(%s) error = %v", nick, err)
	}
	return record
}

var errBoom = errors.New("boom")
