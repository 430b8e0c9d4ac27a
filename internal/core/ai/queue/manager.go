package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Job 一次 LLM 呼叫
type Job func(ctx context.Context) (*provider.Response, error)

// Result 處理結果
type Result struct {
	Response *provider.Response
	Error    error
}

// request 隊列請求
type request struct {
	ctx    context.Context
	job    Job
	result chan Result
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 限制同時進行的 LLM 請求數
type Manager struct {
	workers   int
	maxSize   int
	queue     chan *request
	done      chan struct{}
	processed int64
	wg        sync.WaitGroup
	once      sync.Once
}

// NewManager 創建隊列管理器並啟動 worker
func NewManager(workers, maxSize int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = workers
	}
	m := &Manager{
		workers: workers,
		maxSize: maxSize,
		queue:   make(chan *request, maxSize),
		done:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case req := <-m.queue:
			if err := req.ctx.Err(); err != nil {
				req.result <- Result{Error: err}
				continue
			}
			resp, err := req.job(req.ctx)
			atomic.AddInt64(&m.processed, 1)
			req.result <- Result{Response: resp, Error: err}
		case <-m.done:
			return
		}
	}
}

// Submit 將請求加入隊列並等待結果
func (m *Manager) Submit(ctx context.Context, job Job) (*provider.Response, error) {
	req := &request{ctx: ctx, job: job, result: make(chan Result, 1)}

	select {
	case <-m.done:
		return nil, common.Wrap(common.ErrLLMUnavailable, errors.New("queue manager is closed"))
	default:
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		common.LogWarn("LLM 隊列已滿", zap.Int("max_queue_size", m.maxSize))
		return nil, common.Wrap(common.ErrLLMUnavailable, errors.New("queue is full"))
	}

	select {
	case res := <-req.result:
		return res.Response, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, common.Wrap(common.ErrLLMUnavailable, errors.New("queue manager is closed"))
	}
}

// Status 獲取隊列狀態
func (m *Manager) Status() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止所有 worker
func (m *Manager) Close() {
	m.once.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}
