package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultSheetQueueKey is the Redis list holding pending jobs.
	DefaultSheetQueueKey = "sheet:jobs"

	// DefaultSheetPollInterval is the retry interval when no new job arrives.
	DefaultSheetPollInterval = 2 * time.Minute

	// Timeout for individual Redis operations
	sheetQueueRedisTimeout = 5 * time.Second
)

// SheetSubmitter delivers one job to the spreadsheet.
type SheetSubmitter interface {
	Submit(ctx context.Context, job entity.SheetJob) error
}

// SheetQueueService is a durable FIFO of spreadsheet rows backed by a Redis
// list. One worker drains it front to back; a job leaves the list only after
// the webhook acknowledged it.
type SheetQueueService struct {
	redisClient *redis.Client
	submitter   SheetSubmitter
	log         *logrus.Logger
	limiter     *rate.Limiter

	key      string
	deadKey  string
	interval time.Duration

	// wake coalesces new-job signals; capacity 1.
	wake chan struct{}
	// passing is held for the duration of one drain pass.
	passing atomic.Bool

	// Graceful shutdown
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type SheetQueueOptions struct {
	Key      string
	Interval time.Duration
	// Submissions per second; zero means unpaced.
	Rate float64
}

// NewSheetQueueService creates the queue. A nil submitter keeps jobs queued
// without ever sending them.
func NewSheetQueueService(redisClient *redis.Client, submitter SheetSubmitter, log *logrus.Logger, opts SheetQueueOptions) *SheetQueueService {
	if opts.Key == "" {
		opts.Key = DefaultSheetQueueKey
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultSheetPollInterval
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &SheetQueueService{
		redisClient: redisClient,
		submitter:   submitter,
		log:         log,
		limiter:     rate.NewLimiter(limit, 1),
		key:         opts.Key,
		deadKey:     opts.Key + ":dead",
		interval:    opts.Interval,
		wake:        make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
	}
}

// Enqueue persists a job at the tail and wakes the worker.
func (s *SheetQueueService) Enqueue(ctx context.Context, jobType string, rowData []string) error {
	job := entity.SheetJob{
		ID:         uuid.New(),
		Type:       jobType,
		RowData:    rowData,
		EnqueuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, sheetQueueRedisTimeout)
	defer cancel()
	if err := s.redisClient.RPush(opCtx, s.key, payload).Err(); err != nil {
		return err
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of pending jobs.
func (s *SheetQueueService) Len(ctx context.Context) (int64, error) {
	return s.redisClient.LLen(ctx, s.key).Result()
}

// Start launches the worker. It drains whatever survived a restart first,
// then waits for a new-job signal or the poll interval.
func (s *SheetQueueService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runPass(ctx)
		for {
			select {
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runPass(ctx)
			case <-s.wake:
				s.runPass(ctx)
			}
		}
	}()

	s.log.Infof("Sheet queue worker started (key=%s, interval=%s)", s.key, s.interval)
}

// Stop gracefully stops the worker. Safe to call multiple times.
func (s *SheetQueueService) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("Sheet queue worker stopped")
}

func (s *SheetQueueService) runPass(ctx context.Context) {
	sent, ran, err := s.ProcessPending(ctx)
	if !ran {
		return
	}
	if err != nil {
		s.log.Warnf("Sheet queue pass halted after %d job(s): %+v", sent, err)
		return
	}
	if sent > 0 {
		s.log.Infof("Sheet queue pass delivered %d job(s)", sent)
	}
}

// ProcessPending drains the queue head-first until it is empty or a retryable
// failure leaves the head job in place. ran is false when another pass was
// already in progress.
func (s *SheetQueueService) ProcessPending(ctx context.Context) (sent int, ran bool, err error) {
	if s.submitter == nil {
		return 0, false, nil
	}
	if !s.passing.CompareAndSwap(false, true) {
		return 0, false, nil
	}
	defer s.passing.Store(false)

	for {
		if ctx.Err() != nil {
			return sent, true, ctx.Err()
		}

		raw, err := s.redisClient.LIndex(ctx, s.key, 0).Result()
		if errors.Is(err, redis.Nil) {
			return sent, true, nil
		}
		if err != nil {
			return sent, true, err
		}

		var job entity.SheetJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			s.log.Warnf("Failed to decode sheet job, moving to %s: %+v", s.deadKey, err)
			if err := s.moveToDead(ctx, raw); err != nil {
				return sent, true, err
			}
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return sent, true, err
		}

		submitErr := s.submitter.Submit(ctx, job)
		switch {
		case submitErr == nil:
			if err := s.redisClient.LRem(ctx, s.key, 1, raw).Err(); err != nil {
				return sent, true, err
			}
			sent++
		case apperr.Is(submitErr, apperr.KindValidation):
			s.log.Warnf("Sheet job %s rejected, moving to %s: %+v", job.ID, s.deadKey, submitErr)
			if err := s.moveToDead(ctx, raw); err != nil {
				return sent, true, err
			}
		default:
			// Rate limited or upstream down: the job stays at the head.
			return sent, true, submitErr
		}
	}
}

func (s *SheetQueueService) moveToDead(ctx context.Context, raw string) error {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.deadKey, raw)
		pipe.LRem(ctx, s.key, 1, raw)
		return nil
	})
	return err
}
