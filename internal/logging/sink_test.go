package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot/internal/domain"
)

type fakeLogStore struct {
	appended  []domain.LogEntry
	pruned    int
	appendErr error
}

func (f *fakeLogStore) Append(_ context.Context, entry domain.LogEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, entry)
	return nil
}

func (f *fakeLogStore) Latest(context.Context, int) ([]domain.LogEntry, error) { return nil, nil }

func (f *fakeLogStore) Prune(_ context.Context, keep int) error {
	f.pruned = keep
	return nil
}

// quietHandler accepts every level but writes nowhere, unlike
// slog.DiscardHandler whose Enabled rejects all records.
func quietHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func TestSinkHandlerPersistsRecords(t *testing.T) {
	store := &fakeLogStore{}
	logger := slog.New(NewSinkHandler(quietHandler(), store))

	logger.Warn("feed fetch failed", "feed", "local", "attempt", 2)

	require.Len(t, store.appended, 1)
	entry := store.appended[0]
	assert.Equal(t, "warning", entry.Level)
	assert.Equal(t, "feed fetch failed", entry.Message)
	assert.Contains(t, entry.Context, `"feed":"local"`)
	assert.Equal(t, MaxSinkRows, store.pruned)
}

func TestSinkHandlerCarriesWithAttrs(t *testing.T) {
	store := &fakeLogStore{}
	logger := slog.New(NewSinkHandler(quietHandler(), store))

	logger.With("component", "pipeline").Info("run started")

	require.Len(t, store.appended, 1)
	assert.Contains(t, store.appended[0].Context, `"component":"pipeline"`)
}

func TestSinkHandlerSwallowsStoreFailures(t *testing.T) {
	store := &fakeLogStore{appendErr: errors.New("db down")}
	logger := slog.New(NewSinkHandler(quietHandler(), store))

	assert.NotPanics(t, func() {
		logger.Error("something broke")
	})
	assert.Zero(t, store.pruned, "prune is skipped when append fails")
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "error", levelName(slog.LevelError))
	assert.Equal(t, "warning", levelName(slog.LevelWarn))
	assert.Equal(t, "info", levelName(slog.LevelInfo))
	assert.Equal(t, "info", levelName(slog.LevelDebug))
}
