package worker

import (
	"context"
	"sync"
	"time"

	"recipe_community/internal/pkg/push"
	"recipe_community/pkg/logger"
	"recipe_community/pkg/metrics"

	"go.uber.org/zap"
)

// Notification 推送任务
type Notification struct {
	AccountID string
	Title     string
	Body      string
	Ext       map[string]string
	Retry     int // 重试次数
}

// Notifier 业务层使用的异步通知入口
type Notifier interface {
	Notify(n Notification)
}

type WorkerPool struct {
	TaskQueue  chan Notification
	RetryQueue chan Notification // 重试队列
	Pusher     push.PushService
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	RetryDelay time.Duration // 每次重试的基础等待

	wg       sync.WaitGroup
	stopOnce sync.Once
	quit     chan struct{}
}

func NewWorkerPool(pusher push.PushService, workerNum int, bufferSize int) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize < 2 {
		bufferSize = 2
	}
	return &WorkerPool{
		TaskQueue:  make(chan Notification, bufferSize),
		RetryQueue: make(chan Notification, bufferSize/2),
		Pusher:     pusher,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		RetryDelay: time.Second,
		quit:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("notification worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止接收新任务，等待队列中已有任务处理完
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.TaskQueue:
			p.handle(id, task)
		case <-p.quit:
			// 排空剩余任务
			for {
				select {
				case task := <-p.TaskQueue:
					p.handle(id, task)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) handle(id int, task Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := p.Pusher.PushToAccount(ctx, task.AccountID, task.Title, task.Body, task.Ext)
	if err == nil {
		metrics.RecordNotification("sent")
		return
	}

	logger.Log.Warn("push failed",
		zap.Int("worker", id),
		zap.String("account", task.AccountID),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry < p.MaxRetry {
		task.Retry++
		select {
		case p.RetryQueue <- task:
			metrics.RecordNotification("retry")
		default:
			p.logFailedTask(task, err)
		}
		return
	}
	p.logFailedTask(task, err)
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-time.After(time.Duration(task.Retry) * p.RetryDelay):
			case <-p.quit:
				p.logFailedTask(task, nil)
				continue
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil)
			}
		case <-p.quit:
			return
		}
	}
}

func (p *WorkerPool) logFailedTask(task Notification, err error) {
	metrics.RecordNotification("dropped")
	logger.Log.Error("notification dropped",
		zap.String("account", task.AccountID),
		zap.String("title", task.Title),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)
}

// Notify 非阻塞入队，队列满时丢弃
func (p *WorkerPool) Notify(n Notification) {
	select {
	case <-p.quit:
		p.logFailedTask(n, nil)
		return
	default:
	}

	select {
	case p.TaskQueue <- n:
	default:
		p.logFailedTask(n, nil)
	}
}
