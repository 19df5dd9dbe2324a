package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-cms/meridian-cms/jobs"
)

type stubPurger struct {
	before  time.Time
	removed int64
	err     error
}

func (s *stubPurger) PurgeExpiredLoginAudit(_ context.Context, before time.Time) (int64, error) {
	s.before = before
	return s.removed, s.err
}

func TestAuditPurgeHandler(t *testing.T) {
	purger := &stubPurger{removed: 3}
	handler := jobs.NewAuditPurgeHandler(purger, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task, err := jobs.NewAuditPurgeTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))

	wantCutoff := time.Now().Add(-48 * time.Hour)
	assert.WithinDuration(t, wantCutoff, purger.before, time.Minute)
}

func TestAuditPurgeHandlerPropagatesErrors(t *testing.T) {
	purger := &stubPurger{err: errors.New("db down")}
	handler := jobs.NewAuditPurgeHandler(purger, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task, err := jobs.NewAuditPurgeTask(time.Hour)
	require.NoError(t, err)

	assert.Error(t, handler(context.Background(), task))
}

func TestAuditPurgeHandlerSkipsBadPayload(t *testing.T) {
	purger := &stubPurger{}
	handler := jobs.NewAuditPurgeHandler(purger, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task := asynq.NewTask(jobs.TaskTypeAuditPurge, []byte("not json"))
	err := handler(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
