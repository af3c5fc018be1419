// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsResult(t *testing.T) {
	g := New(time.Second)

	got, err := Run(context.Background(), g, "double", func(context.Context) (int, error) {
		return 21 * 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRun_PassesThroughError(t *testing.T) {
	g := New(time.Second)
	boom := errors.New("boom")

	_, err := Run(context.Background(), g, "fail", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_Timeout(t *testing.T) {
	tests := []struct {
		name string
		fn   func(release <-chan struct{}) func(context.Context) (int, error)
	}{
		{
			name: "cooperative operation",
			fn: func(<-chan struct{}) func(context.Context) (int, error) {
				return func(ctx context.Context) (int, error) {
					<-ctx.Done()
					return 0, ctx.Err()
				}
			},
		},
		{
			name: "operation ignoring its context",
			fn: func(release <-chan struct{}) func(context.Context) (int, error) {
				return func(context.Context) (int, error) {
					<-release
					return 1, nil
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			t.Cleanup(func() { close(release) })

			g := New(20 * time.Millisecond)
			_, err := Run(context.Background(), g, "slow match", tt.fn(release))

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTimeout)
			var te *TimeoutError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "slow match", te.Op)
			assert.Equal(t, 20*time.Millisecond, te.Deadline)
		})
	}
}

func TestRun_ReusableAfterTimeout(t *testing.T) {
	g := New(50 * time.Millisecond)

	_, err := Run(context.Background(), g, "first", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, ErrTimeout)

	// A fast call right after must not be hit by a leftover deadline.
	got, err := Run(context.Background(), g, "second", func(ctx context.Context) (int, error) {
		time.Sleep(time.Millisecond)
		return 7, ctx.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestRun_RejectsNestedUse(t *testing.T) {
	g := New(time.Second)

	_, err := Run(context.Background(), g, "outer", func(ctx context.Context) (int, error) {
		return Run(ctx, g, "inner", func(context.Context) (int, error) {
			return 1, nil
		})
	})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRun_CallerCancellationIsNotTimeout(t *testing.T) {
	g := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Run(ctx, g, "cancelled", func(evalCtx context.Context) (int, error) {
		cancel()
		<-evalCtx.Done()
		return 0, evalCtx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRun_NilGuardHasNoDeadline(t *testing.T) {
	got, err := Run(context.Background(), nil, "direct", func(ctx context.Context) (string, error) {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			return "", errors.New("unexpected deadline")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestNew_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0).Timeout())
	assert.Equal(t, 3*time.Second, New(3*time.Second).Timeout())
}
