package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobBegin_SetsMetadata(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), "poll_sweep", 0)
	defer cancel()

	meta := GetJobMetadata(ctx)
	assert.Equal(t, "poll_sweep", meta.JobType)
	assert.NotEqual(t, uuid.Nil, meta.JobID)
	assert.False(t, meta.StartTime.IsZero())

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
}

func TestRunIsolated(t *testing.T) {
	ctx := context.Background()

	err := RunIsolated(ctx, "p1", func(ctx context.Context) error {
		id, _ := GetItemID(ctx)
		assert.Equal(t, "p1", id)
		return nil
	})
	require.NoError(t, err)

	err = RunIsolated(ctx, "p2", func(context.Context) error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	called := false
	err = RunIsolated(cancelled, "p3", func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))

	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	assert.True(t, IsRetryableError(fmt.Errorf("failed to list due polls: %w", refused)))

	assert.True(t, IsRetryableError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"}))
	assert.False(t, IsRetryableError(&pgconn.PgError{Code: "23505", Message: "duplicate key"}))
	assert.True(t, IsRetryableError(&net.DNSError{Err: "server misbehaving", IsTemporary: true}))
	assert.False(t, IsRetryableError(errors.New("record not found")))
}
