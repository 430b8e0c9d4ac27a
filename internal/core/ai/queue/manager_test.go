package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsJobResult(t *testing.T) {
	m := NewManager(2, 10)
	defer m.Close()

	resp, err := m.Submit(context.Background(), func(ctx context.Context) (*provider.Response, error) {
		return &provider.Response{Content: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	boom := errors.New("boom")
	_, err = m.Submit(context.Background(), func(ctx context.Context) (*provider.Response, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), m.Status().ProcessedCount)
}

func TestWorkersBoundConcurrency(t *testing.T) {
	m := NewManager(2, 20)
	defer m.Close()

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Submit(context.Background(), func(ctx context.Context) (*provider.Response, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return &provider.Response{}, nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, int64(8), m.Status().ProcessedCount)
}

func TestSubmitAfterClose(t *testing.T) {
	m := NewManager(1, 1)
	m.Close()
	m.Close()

	_, err := m.Submit(context.Background(), func(ctx context.Context) (*provider.Response, error) {
		return &provider.Response{}, nil
	})
	require.Error(t, err)
	assert.True(t, common.IsUseDefault(err))
}

func TestSubmitHonoursContext(t *testing.T) {
	m := NewManager(1, 5)
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Submit(ctx, func(ctx context.Context) (*provider.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatus(t *testing.T) {
	m := NewManager(3, 7)
	defer m.Close()
	s := m.Status()
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, 7, s.MaxQueueSize)
	assert.Zero(t, s.QueueLength)
}
