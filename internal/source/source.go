package source

import (
	"context"
	"errors"
	"time"

	"esg-monitor/internal/models"
)

var (
	// ErrMissingCredentials means the source has no API key or the key was rejected.
	ErrMissingCredentials = errors.New("missing or rejected API credentials")
	// ErrEmptyResult means the source answered but had nothing for the query.
	ErrEmptyResult = errors.New("source returned no records")
	// ErrNoSources means no source is configured at all.
	ErrNoSources = errors.New("no data sources configured")
)

// Fetcher retrieves records matching query published between from and to.
type Fetcher interface {
	Fetch(ctx context.Context, query string, from, to time.Time) ([]models.Record, error)
}

// NamedFetcher is a Fetcher that can be told apart in logs.
type NamedFetcher interface {
	Fetcher
	Name() string
}
