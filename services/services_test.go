package services

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// inTx runs fn in a committed unit-of-work and fails the test on error.
func inTx(t *testing.T, db *gorm.DB, fn func(uow *repository.UnitOfWork)) {
	t.Helper()
	require.NoError(t, repository.Transaction(context.Background(), db, func(uow *repository.UnitOfWork) error {
		fn(uow)
		return nil
	}))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
