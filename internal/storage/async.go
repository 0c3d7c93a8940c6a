package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"esg-monitor/internal/metrics"
)

// Async writes values in the background. Failures are logged and counted, never
// returned to the caller.
type Async struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewAsync wraps store. A non-positive timeout means 10 seconds.
func NewAsync(store Store, timeout time.Duration, logger *zap.Logger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{store: store, timeout: timeout, logger: logger}
}

// Put encodes v as JSON and saves it under key without blocking.
func (a *Async) Put(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.fail(key, err)
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.store.Save(ctx, key, data); err != nil {
			a.fail(key, err)
		}
	}()
}

// Load reads key and decodes it into v.
func (a *Async) Load(ctx context.Context, key string, v any) error {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Wait blocks until every pending write has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Close drains pending writes and closes the underlying store.
func (a *Async) Close() error {
	a.wg.Wait()
	return a.store.Close()
}

func (a *Async) fail(key string, err error) {
	metrics.PersistFailures.Inc()
	a.logger.Error("Failed to persist payload", zap.String("key", key), zap.Error(err))
}
