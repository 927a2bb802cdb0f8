package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sourcegraph/conc/pool"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/utils"
)

type Repository interface {
	GetTournamentByID(id int64) (*domain.Tournament, error)
	GetUserByID(id int64) (*domain.User, error)
	InsertSchedule(schedule *domain.Schedule) error
}

type JobStore interface {
	SaveJob(job *domain.SolveJob) error
	CacheSchedule(schedule *domain.Schedule) error
}

type MailPublisher interface {
	PublishMail(msg domain.MailMessage) error
}

type Metrics interface {
	scheduler.Observer
	JobFinished(status domain.SolveJobStatus)
}

// Worker 从队列中取出求解任务，求解后保存赛程并通知组织者
type Worker struct {
	repo        Repository
	jobs        JobStore
	mail        MailPublisher
	metrics     Metrics
	logger      *slog.Logger
	concurrency int
	maxPeople   int
}

func New(repo Repository, jobs JobStore, mail MailPublisher, metrics Metrics, logger *slog.Logger, concurrency int, maxPeople int) *Worker {
	return &Worker{
		repo:        repo,
		jobs:        jobs,
		mail:        mail,
		metrics:     metrics,
		logger:      logger,
		concurrency: max(1, concurrency),
		maxPeople:   maxPeople,
	}
}

// Run 消费任务直到 ctx 被取消或 deliveries 被关闭，最多同时处理 concurrency 个任务
// 单个任务的求解仍然是单线程的
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	p := pool.New().WithMaxGoroutines(w.concurrency)
	defer p.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			p.Go(func() {
				w.handle(msg)
			})
		}
	}
}

func (w *Worker) handle(msg amqp.Delivery) {
	job := &domain.SolveJob{}
	if err := json.Unmarshal(msg.Body, job); err != nil {
		w.logger.Error("求解任务反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	if err := w.Process(job); err != nil {
		// 失败原因已经记录在任务状态中，不需要重新入队
		w.logger.Error("求解任务失败", slog.String("job", job.ID), slog.String("error", err.Error()))
	}

	_ = msg.Ack(false)
}

// Process 执行一个求解任务，任务状态会依次变为 running 和 succeeded / failed
func (w *Worker) Process(job *domain.SolveJob) error {
	job.Status = domain.SolveJobRunning
	if err := w.jobs.SaveJob(job); err != nil {
		return err
	}

	schedule, tournament, err := w.solve(job)
	if err != nil {
		job.Status = domain.SolveJobFailed
		job.Error = err.Error()
		w.metrics.JobFinished(job.Status)
		if saveErr := w.jobs.SaveJob(job); saveErr != nil {
			w.logger.Error("无法更新求解任务状态", slog.String("job", job.ID), slog.String("error", saveErr.Error()))
		}
		return err
	}

	job.Status = domain.SolveJobSucceeded
	job.ScheduleID = schedule.ID
	w.metrics.JobFinished(job.Status)
	if err := w.jobs.SaveJob(job); err != nil {
		return err
	}

	// 通知失败不影响任务结果
	if err := w.notify(job, tournament, schedule); err != nil {
		w.logger.Error("无法发送赛程通知", slog.String("job", job.ID), slog.String("error", err.Error()))
	}

	return nil
}

func (w *Worker) solve(job *domain.SolveJob) (*domain.Schedule, *domain.Tournament, error) {
	tournament, err := w.repo.GetTournamentByID(job.TournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("无法获取赛事 %d: %w", job.TournamentID, err)
	}

	opts := []scheduler.Option{
		scheduler.WithLogger(w.logger.With(slog.String("job", job.ID))),
		scheduler.WithObserver(w.metrics),
		scheduler.WithMaxPeople(w.maxPeople),
	}
	if job.Parameters.Seed != nil {
		opts = append(opts, scheduler.WithSeed(*job.Parameters.Seed))
	}

	s, err := scheduler.New(scheduler.ParametersFor(tournament, job.Parameters), opts...)
	if err != nil {
		return nil, nil, err
	}

	schedule := &domain.Schedule{
		TournamentID: tournament.ID,
		Source:       domain.ScheduleSourceGenerated,
		Rounds:       scheduler.ToScheduleRounds(s.Solve()),
	}

	// 求解器保证每一轮都是合法的划分，这里再检查一次再落库
	if err := utils.ValidateScheduleWithTournament(schedule, tournament); err != nil {
		return nil, nil, err
	}

	if err := w.repo.InsertSchedule(schedule); err != nil {
		return nil, nil, fmt.Errorf("无法保存赛程: %w", err)
	}

	if err := w.jobs.CacheSchedule(schedule); err != nil {
		w.logger.Error("无法缓存赛程", slog.Int64("tournament", tournament.ID), slog.String("error", err.Error()))
	}

	return schedule, tournament, nil
}

func (w *Worker) notify(job *domain.SolveJob, tournament *domain.Tournament, schedule *domain.Schedule) error {
	user, err := w.repo.GetUserByID(job.RequestedBy)
	if err != nil {
		return err
	}

	summary := utils.SummarizeMeetings(schedule, tournament.TotalPeople())

	return w.mail.PublishMail(domain.MailMessage{
		Type: domain.MailTypeScheduleReady,
		To:   user.Email,
		Data: domain.ScheduleReadyMailData{
			FullName:       user.FullName,
			TournamentName: tournament.Name,
			Rounds:         len(schedule.Rounds),
			TotalScore:     schedule.TotalScore(),
			MaxMeetings:    summary.MaxMeetings,
		},
	})
}
