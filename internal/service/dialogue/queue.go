package dialogue

import (
	"context"
	"sync"

	"healthbot/internal/pkg/logger"
)

// JobFunc 后台分析任务
type JobFunc func(ctx context.Context, conversationID string)

// AnalysisQueue 有界的后台分析队列
// 队列满或已关闭时 Enqueue 直接丢弃任务，不阻塞请求
type AnalysisQueue struct {
	jobs    chan string
	workers int
	run     JobFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	start  sync.Once
}

// NewAnalysisQueue 创建队列，需调用 Start 启动 worker
func NewAnalysisQueue(size, workers int, run JobFunc) *AnalysisQueue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &AnalysisQueue{
		jobs:    make(chan string, size),
		workers: workers,
		run:     run,
	}
}

// Start 启动 worker，ctx 作为任务的基础 context，不应使用请求 context
func (q *AnalysisQueue) Start(ctx context.Context) {
	q.start.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
	})
}

func (q *AnalysisQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	log := logger.Component("analysis_queue")

	for id := range q.jobs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("conversation_id", id).Msg("analysis job panicked")
				}
			}()
			q.run(ctx, id)
		}()
	}
}

// Enqueue 提交任务，返回是否被接收
func (q *AnalysisQueue) Enqueue(conversationID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.jobs <- conversationID:
		return true
	default:
		logger.Component("analysis_queue").Warn().
			Str("conversation_id", conversationID).
			Msg("analysis queue full, dropping job")
		return false
	}
}

// Close 停止接收任务，等待已排队的任务执行完
func (q *AnalysisQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
