package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Variants(t *testing.T) {
	t.Parallel()

	done := Completed(5)
	assert.True(t, done.IsCompleted())
	assert.True(t, done.HasValue())
	assert.Equal(t, 5, done.Value())
	assert.NoError(t, done.Err())
	assert.Equal(t, StatusCompleted, done.Status())

	stop := Cancelled[int](nil)
	assert.True(t, stop.IsCancelled())
	assert.False(t, stop.HasValue())
	assert.ErrorIs(t, stop.Err(), context.Canceled)

	boom := errors.New("boom")
	fail := Faulted[int](boom)
	assert.True(t, fail.IsFaulted())
	assert.ErrorIs(t, fail.Err(), boom)

	assert.ErrorIs(t, Faulted[int](nil).Err(), ErrUnknownFault)
	assert.NotEqual(t, done.ID(), fail.ID())
	assert.False(t, done.CreatedAt().IsZero())
}

func TestFromError_Classifies(t *testing.T) {
	t.Parallel()

	assert.True(t, FromError(1, nil).IsCompleted())

	cancelled := FromError(2, fmt.Errorf("read: %w", context.DeadlineExceeded))
	assert.True(t, cancelled.IsCancelled())
	assert.Equal(t, 2, cancelled.Value())

	faulted := FromError(3, errors.New("bad batch"))
	assert.True(t, faulted.IsFaulted())
	assert.Equal(t, 3, faulted.Value())
}

func TestConvert_KeepsIdentity(t *testing.T) {
	t.Parallel()

	in := Cancelled[int](context.Canceled).WithValue(7)
	out := Convert[int, string](in)

	assert.Equal(t, in.ID(), out.ID())
	assert.Equal(t, in.CreatedAt(), out.CreatedAt())
	assert.True(t, out.IsCancelled())
	assert.False(t, out.HasValue())
}

func TestMatch_AllVariants(t *testing.T) {
	t.Parallel()

	describe := func(o Outcome[int]) string {
		return Match(o,
			func(v int) string { return fmt.Sprintf("ok:%d", v) },
			func(reason error) string { return "cancel" },
			func(err error) string { return "fault:" + err.Error() })
	}

	assert.Equal(t, "ok:4", describe(Completed(4)))
	assert.Equal(t, "cancel", describe(Cancelled[int](nil)))
	assert.Equal(t, "fault:x", describe(Faulted[int](errors.New("x"))))
	assert.Equal(t, "fault:"+ErrUnknownFault.Error(), describe(Outcome[int]{}))
}

func TestIsCancellation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCancellation(context.Canceled))
	assert.True(t, IsCancellation(&StageError{Stage: "s", Op: OpRead, Err: context.Canceled}))
	assert.False(t, IsCancellation(errors.New("other")))
	assert.False(t, IsCancellation(nil))
}

func TestReason_PrefersCause(t *testing.T) {
	t.Parallel()

	stopped := fmt.Errorf("stopped: %w", context.Canceled)
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(stopped)
	assert.ErrorIs(t, Reason(ctx, nil), stopped)

	other, cancelOther := context.WithCancelCause(context.Background())
	cancelOther(errors.New("not a cancellation"))
	assert.ErrorIs(t, Reason(other, nil), context.Canceled)

	assert.ErrorIs(t, Reason(context.Background(), context.DeadlineExceeded), context.DeadlineExceeded)
	assert.ErrorIs(t, Reason(context.Background(), errors.New("x")), context.Canceled)
}

func TestErrors_Wrapping(t *testing.T) {
	t.Parallel()

	err := Invalid("batch size", "must be >= 1, got %d", 0)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "batch size", cfg.Field)

	cause := errors.New("embed failed")
	se := &StageError{Stage: "embed", Op: OpProcess, Batch: 2, Err: cause}
	assert.ErrorIs(t, se, cause)
	assert.Equal(t, "stage embed: process batch 2: embed failed", se.Error())
	assert.Equal(t, "stage embed: read: x", (&StageError{Stage: "embed", Op: OpRead, Err: errors.New("x")}).Error())

	joined := errors.Join(Invalid("a", "bad"), Invalid("b", "bad"))
	assert.Len(t, GetErrors(joined), 2)
	assert.Len(t, GetErrors(nil), 0)
}
