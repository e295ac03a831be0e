package channel

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsCapacityBelowOne(t *testing.T) {
	t.Parallel()

	for _, c := range []int{0, -1} {
		_, err := New[int](c)
		assert.ErrorIs(t, err, flow.ErrInvalidConfiguration)
	}
}

func TestChannel_FIFOThenEOF(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ch, err := New[int](4)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, ch.Write(ctx, i))
	}
	ch.Complete()

	assert.Equal(t, Completed, ch.State())
	for i := 1; i <= 3; i++ {
		v, err := ch.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	_, err = ch.Read(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = ch.Read(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestChannel_WriteAfterTermination(t *testing.T) {
	t.Parallel()

	ch, _ := New[int](1)
	ch.Complete()
	assert.ErrorIs(t, ch.Write(context.Background(), 1), ErrTerminated)

	faulted, _ := New[int](1)
	faulted.CompleteWithError(errors.New("boom"))
	assert.ErrorIs(t, faulted.Write(context.Background(), 1), ErrTerminated)
}

func TestChannel_Backpressure(t *testing.T) {
	t.Parallel()

	ch, _ := New[int](1)
	require.NoError(t, ch.Write(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ch.Write(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, ch.Len())
	assert.Equal(t, 1, ch.Cap())

	written := make(chan error, 1)
	go func() { written <- ch.Write(context.Background(), 3) }()

	v, err := ch.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, <-written)

	v, err = ch.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestChannel_ReadBlocksUntilContextDone(t *testing.T) {
	t.Parallel()

	ch, _ := New[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ch.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Open, ch.State())
}

func TestChannel_FaultSurfacesAfterDrain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	ch, _ := New[string](2)
	require.NoError(t, ch.Write(ctx, "a"))
	ch.CompleteWithError(boom)

	assert.Equal(t, Faulted, ch.State())
	assert.ErrorIs(t, ch.Err(), boom)

	v, err := ch.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	_, err = ch.Read(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestChannel_CancellationIsNotAFault(t *testing.T) {
	t.Parallel()

	ch, _ := New[int](1)
	ch.CompleteWithError(context.Canceled)

	assert.Equal(t, Cancelled, ch.State())
	_, err := ch.Read(context.Background())
	assert.True(t, flow.IsCancellation(err))
}

func TestChannel_TerminationIsIdempotent(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	ch, _ := New[int](1)
	ch.CompleteWithError(first)
	ch.CompleteWithError(errors.New("second"))
	ch.Complete()

	assert.Equal(t, Faulted, ch.State())
	assert.ErrorIs(t, ch.Err(), first)

	done, _ := New[int](1)
	done.Complete()
	done.Complete()
	done.CompleteWithError(errors.New("late"))
	assert.Equal(t, Completed, done.State())
	assert.NoError(t, done.Err())

	select {
	case <-done.Done():
	default:
		t.Fatal("Done was not closed")
	}
}

func TestChannel_CompleteWithNilError(t *testing.T) {
	t.Parallel()

	ch, _ := New[int](1)
	ch.CompleteWithError(nil)
	assert.Equal(t, Completed, ch.State())
}

func TestChannel_ConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const n = 1000
	ch, _ := New[int](8)
	go func() {
		for i := 0; i < n; i++ {
			if err := ch.Write(ctx, i); err != nil {
				ch.CompleteWithError(err)
				return
			}
		}
		ch.Complete()
	}()

	got, err := Drain[int](ctx, ch)
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, v := range got {
		if v != i {
			t.Fatalf("expected %d at position %d, got %d", i, i, v)
		}
	}
}

func TestChannel_AcceptedWritesSurviveRacingTermination(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for round := 0; round < 50; round++ {
		ch, _ := New[int](4)
		accepted := make(chan int, 1)
		go func() {
			n := 0
			for ch.Write(ctx, n) == nil {
				n++
			}
			accepted <- n
		}()
		go func() {
			time.Sleep(time.Duration(round%5) * 100 * time.Microsecond)
			ch.Complete()
		}()

		got, err := Drain[int](ctx, ch)
		require.NoError(t, err)
		assert.Len(t, got, <-accepted, "round %d", round)
	}
}

func TestFeed_Handlers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ch, _ := New[int](3)
	var sent []int
	err := Feed[int](ctx, ch, FeedHandlers[int]{
		OnSuccess: func(_ context.Context, v int) { sent = append(sent, v) },
	}, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, sent)
	assert.Equal(t, Completed, ch.State())
}

func TestFeed_StartFailWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, _ := New[int](1)
	var unsent []int
	err := Feed[int](ctx, ch, FeedHandlers[int]{
		OnStartFail: func(_ context.Context, input []int) { unsent = input },
	}, 1, 2)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1, 2}, unsent)
	assert.Equal(t, Cancelled, ch.State())
}

func TestFeed_BreakReportsRest(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ch, _ := New[int](1)
	var rest []int
	err := Feed[int](ctx, ch, FeedHandlers[int]{
		OnBreak: func(_ context.Context, r []int) { rest = r },
	}, 1, 2, 3)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []int{2, 3}, rest)
	assert.Equal(t, Cancelled, ch.State())
}

func TestFromSlice_Drain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ch, err := FromSlice(ctx, 2, "a", "b", "c")
	require.NoError(t, err)

	got, err := Drain[string](ctx, ch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestDrain_ReturnsItemsBeforeFault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")

	ch, _ := New[int](4)
	_ = ch.Write(ctx, 1)
	_ = ch.Write(ctx, 2)
	ch.CompleteWithError(boom)

	got, err := Drain[int](ctx, ch)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2}, got)
}

func TestFirstOrDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ch, _ := FromSlice(ctx, 1, 9, 10)
	assert.Equal(t, 9, FirstOrDefault[int](ctx, ch, -1))

	empty, _ := New[int](1)
	empty.Complete()
	assert.Equal(t, -1, FirstOrDefault[int](ctx, empty, -1))
}
