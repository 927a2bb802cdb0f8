package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/config"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

var (
	ErrJobNotFound      = errors.New("求解任务不存在")
	ErrScheduleNotFound = errors.New("赛程缓存不存在")
)

func jobKey(id string) string {
	return fmt.Sprintf("solve_job_%s", id)
}

func scheduleKey(tournamentID int64) string {
	return fmt.Sprintf("schedule_%d", tournamentID)
}

// Store 将求解任务的状态以及已保存的赛程缓存在 redis 中
type Store struct {
	client             *redis.Client
	operationTimeout   time.Duration
	jobExpiration      time.Duration
	scheduleExpiration time.Duration
}

func New(client *redis.Client, cfg *config.Config) *Store {
	return &Store{
		client:             client,
		operationTimeout:   time.Duration(cfg.Redis.OperationExpiration) * time.Second,
		jobExpiration:      time.Duration(cfg.Redis.JobExpiration) * time.Second,
		scheduleExpiration: time.Duration(cfg.Redis.ScheduleExpiration) * time.Second,
	}
}

func (s *Store) set(key string, v any, expiration time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.operationTimeout)
	defer cancel()

	return s.client.Set(ctx, key, data, expiration).Err()
}

func (s *Store) get(key string, v any) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.operationTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func (s *Store) SaveJob(job *domain.SolveJob) error {
	job.UpdatedAt = time.Now()
	return s.set(jobKey(job.ID), job, s.jobExpiration)
}

func (s *Store) GetJob(id string) (*domain.SolveJob, error) {
	job := &domain.SolveJob{}
	if err := s.get(jobKey(id), job); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *Store) CacheSchedule(schedule *domain.Schedule) error {
	return s.set(scheduleKey(schedule.TournamentID), schedule, s.scheduleExpiration)
}

func (s *Store) GetCachedSchedule(tournamentID int64) (*domain.Schedule, error) {
	schedule := &domain.Schedule{}
	if err := s.get(scheduleKey(tournamentID), schedule); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return schedule, nil
}

// InvalidateSchedule 删除赛程缓存，赛事被删除或名单变化时调用
func (s *Store) InvalidateSchedule(tournamentID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.operationTimeout)
	defer cancel()

	return s.client.Del(ctx, scheduleKey(tournamentID)).Err()
}
