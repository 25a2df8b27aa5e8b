package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey int

const (
	sweepKey contextKey = iota
	itemKey
)

// DefaultTimeout bounds a single sweep when the caller passes zero
const DefaultTimeout = time.Minute

// JobMetadata describes the sweep a context belongs to
type JobMetadata struct {
	JobID     uuid.UUID
	JobType   string
	ItemID    string
	StartTime time.Time
}

// JobBegin starts a sweep: a fresh id, the sweep name and its start time ride on the returned context
func JobBegin(parentCtx context.Context, jobType string, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parentCtx, timeout)
	ctx = context.WithValue(ctx, sweepKey, JobMetadata{
		JobID:     uuid.New(),
		JobType:   jobType,
		StartTime: time.Now(),
	})
	return ctx, cancel
}

// WithItem tags ctx with the id of the item currently being processed
func WithItem(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, itemKey, itemID)
}

// RunIsolated executes fn for one item of a sweep. A panic inside fn is
// converted into an error so the remaining items still run.
func RunIsolated(ctx context.Context, itemID string, fn func(context.Context) error) (err error) {
	ctx = WithItem(ctx, itemID)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered while processing %s: %v", itemID, p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before processing %s: %w", itemID, ctx.Err())
	}
	return fn(ctx)
}

// GetItemID returns the item set by WithItem
func GetItemID(ctx context.Context) (string, bool) {
	itemID, ok := ctx.Value(itemKey).(string)
	return itemID, ok
}

// GetJobMetadata returns the sweep metadata of ctx; the zero value outside a sweep
func GetJobMetadata(ctx context.Context) JobMetadata {
	meta, _ := ctx.Value(sweepKey).(JobMetadata)
	meta.ItemID, _ = GetItemID(ctx)
	return meta
}

// postgres SQLSTATEs worth another attempt
var retryableSQLStates = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57P03": {}, // cannot_connect_now
	"53300": {}, // too_many_connections
}

// IsRetryableError reports whether a failed store call may succeed if repeated:
// dropped or refused connections, timeouts and postgres lock conflicts.
func IsRetryableError(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryableSQLStates[pgErr.Code]
		return ok
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary
	}
	return false
}
