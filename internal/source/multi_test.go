package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"esg-monitor/internal/models"
)

type fakeSource struct {
	name    string
	records []models.Record
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, query string, from, to time.Time) ([]models.Record, error) {
	f.calls++
	return f.records, f.err
}

func TestMultiSourceFailsOver(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("connection refused")}
	healthy := &fakeSource{name: "healthy", records: []models.Record{{ID: "1"}}}
	m := NewMultiSource([]NamedFetcher{broken, healthy}, 2, zap.NewNop())

	records, err := m.Fetch(context.Background(), "q", time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, m.Failures()["broken"])
	assert.Equal(t, 0, m.Failures()["healthy"])
}

func TestMultiSourceSkipsTrippedSource(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("timeout")}
	healthy := &fakeSource{name: "healthy", records: []models.Record{{ID: "1"}}}
	m := NewMultiSource([]NamedFetcher{broken, healthy}, 2, zap.NewNop())

	for i := 0; i < 4; i++ {
		_, err := m.Fetch(context.Background(), "q", time.Time{}, time.Time{})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, broken.calls)
	assert.Equal(t, 4, healthy.calls)
}

func TestMultiSourceEmptyResultIsNotAFailure(t *testing.T) {
	empty := &fakeSource{name: "empty", err: ErrEmptyResult}
	m := NewMultiSource([]NamedFetcher{empty}, 1, zap.NewNop())

	_, err := m.Fetch(context.Background(), "q", time.Time{}, time.Time{})

	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.Equal(t, 0, m.Failures()["empty"])
}

func TestMultiSourceResetsWhenAllTripped(t *testing.T) {
	broken := &fakeSource{name: "broken", err: ErrMissingCredentials}
	m := NewMultiSource([]NamedFetcher{broken}, 1, zap.NewNop())

	_, err := m.Fetch(context.Background(), "q", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = m.Fetch(context.Background(), "q", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	assert.Equal(t, 2, broken.calls)
}

func TestMultiSourceWithoutSources(t *testing.T) {
	_, err := NewMultiSource(nil, 0, zap.NewNop()).Fetch(context.Background(), "q", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoSources)
}
