package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStores(t *testing.T) {
	logger := zap.NewNop()
	open := map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir(), logger)
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "esg.db"), logger)
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) Store {
			s, err := NewBadgerStore(BadgerConfig{Path: t.TempDir()}, logger)
			require.NoError(t, err)
			return s
		},
		"memory": func(t *testing.T) Store {
			s, err := Open(DefaultConfig(), logger)
			require.NoError(t, err)
			return s
		},
	}

	for name, newStore := range open {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			ctx := context.Background()

			_, err := s.Get(ctx, "cycle/missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "raw/task-1/20240315T000000.000Z", []byte(`{"a":1}`)))
			got, err := s.Get(ctx, "raw/task-1/20240315T000000.000Z")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))

			require.NoError(t, s.Save(ctx, "raw/task-1/20240315T000000.000Z", []byte(`{"a":2}`)))
			got, err = s.Get(ctx, "raw/task-1/20240315T000000.000Z")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))

			assert.ErrorIs(t, s.Save(ctx, "", []byte("x")), ErrInvalidKey)
			assert.ErrorIs(t, s.Save(ctx, "../escape", []byte("x")), ErrInvalidKey)
		})
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "esg.db")
	s, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "cycle/1", []byte("report")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), "cycle/1")
	require.NoError(t, err)
	assert.Equal(t, "report", string(got))
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Driver: DriverNone}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, s.Save(context.Background(), "k", nil))
	_, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)

	s, err = Open(Config{Driver: DriverFile, Path: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(Config{Driver: "mongo"}, zap.NewNop())
	assert.Error(t, err)

	_, err = Open(Config{Driver: DriverPostgres}, zap.NewNop())
	assert.Error(t, err)
}

type failingStore struct{ Nop }

func (failingStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestAsyncPutAndLoad(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	a := NewAsync(s, 0, zap.NewNop())

	a.Put("cycle/abc", map[string]string{"status": "completed"})
	a.Wait()

	var got map[string]string
	require.NoError(t, a.Load(context.Background(), "cycle/abc", &got))
	assert.Equal(t, "completed", got["status"])
	assert.NoError(t, a.Close())
}

func TestAsyncLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	a := NewAsync(failingStore{}, 0, zap.New(core))

	a.Put("cycle/abc", map[string]string{"status": "completed"})
	a.Put("cycle/bad", func() {})
	a.Wait()

	entries := logs.FilterMessage("Failed to persist payload").All()
	require.Len(t, entries, 2)
	keys := []string{
		entries[0].ContextMap()["key"].(string),
		entries[1].ContextMap()["key"].(string),
	}
	assert.ElementsMatch(t, []string{"cycle/abc", "cycle/bad"}, keys)
}
