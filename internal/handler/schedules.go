package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/jobstore"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/utils"
)

type solveRequest struct {
	Generations             int32  `json:"generations" validate:"min=0,max=1000"`
	InitialPopulation       int32  `json:"initialPopulation" validate:"min=0,max=1000"`
	RandomMutations         int32  `json:"randomMutations" validate:"min=0,max=1000"`
	MaxDescendantsToExplore int32  `json:"maxDescendantsToExplore" validate:"min=0,max=10000"`
	Seed                    *int64 `json:"seed"`
}

// readSolveRequest 请求体为空时所有参数使用默认值
func (h *Handler) readSolveRequest(r *http.Request) (domain.SolveParameters, error) {
	var req solveRequest
	if err := h.readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return domain.SolveParameters{}, err
	}
	if err := h.validate.Struct(req); err != nil {
		return domain.SolveParameters{}, err
	}

	// 未指定的迭代参数使用服务端配置
	parameters := domain.SolveParameters{
		Generations:             req.Generations,
		InitialPopulation:       req.InitialPopulation,
		RandomMutations:         req.RandomMutations,
		MaxDescendantsToExplore: req.MaxDescendantsToExplore,
		Seed:                    req.Seed,
	}
	if parameters.Generations == 0 {
		parameters.Generations = int32(h.config.Solver.Generations)
	}
	if parameters.InitialPopulation == 0 {
		parameters.InitialPopulation = int32(h.config.Solver.InitialPopulation)
	}
	if parameters.RandomMutations == 0 {
		parameters.RandomMutations = int32(h.config.Solver.RandomMutations)
	}
	if parameters.MaxDescendantsToExplore == 0 {
		parameters.MaxDescendantsToExplore = int32(h.config.Solver.MaxDescendantsToExplore)
	}

	return parameters, nil
}

// clampForSync 同步求解直接占用请求的 goroutine，迭代参数不能超过服务端默认值
func (h *Handler) clampForSync(p domain.SolveParameters) domain.SolveParameters {
	p.Generations = min(p.Generations, int32(h.config.Solver.Generations))
	p.InitialPopulation = min(p.InitialPopulation, int32(h.config.Solver.InitialPopulation))
	p.RandomMutations = min(p.RandomMutations, int32(h.config.Solver.RandomMutations))
	p.MaxDescendantsToExplore = min(p.MaxDescendantsToExplore, int32(h.config.Solver.MaxDescendantsToExplore))
	return p
}

type scheduleResponse struct {
	Schedule *domain.Schedule       `json:"schedule"`
	Players  []domain.Player        `json:"players"`
	Summary  domain.ScheduleSummary `json:"summary"`
}

// GenerateSchedule 同步求解，结果不保存
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	if t.TotalPeople() > h.config.Solver.SyncMaxPeople {
		h.errorResponse(w, r, fmt.Sprintf("参赛人数超过 %d，请使用异步求解", h.config.Solver.SyncMaxPeople))
		return
	}

	parameters, err := h.readSolveRequest(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	parameters = h.clampForSync(parameters)

	opts := []scheduler.Option{
		scheduler.WithLogger(slog.Default().With("tournament", t.ID)),
		scheduler.WithObserver(h.metrics),
		scheduler.WithMaxPeople(h.config.Solver.MaxPeople),
	}
	if parameters.Seed != nil {
		opts = append(opts, scheduler.WithSeed(*parameters.Seed))
	}

	s, err := scheduler.New(scheduler.ParametersFor(t, parameters), opts...)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule := &domain.Schedule{
		TournamentID: t.ID,
		Source:       domain.ScheduleSourceGenerated,
		Rounds:       scheduler.ToScheduleRounds(s.Solve()),
		CreatedAt:    time.Now(),
	}

	h.successResponse(w, r, "生成赛程成功", scheduleResponse{
		Schedule: schedule,
		Summary:  utils.SummarizeMeetings(schedule, t.TotalPeople()),
	})
}

// SolveSchedule 创建异步求解任务，由 worker 求解并保存赛程
func (h *Handler) SolveSchedule(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	if t.TotalPeople() > h.config.Solver.MaxPeople {
		h.errorResponse(w, r, fmt.Sprintf("参赛总人数 %d 超过上限 %d", t.TotalPeople(), h.config.Solver.MaxPeople))
		return
	}

	parameters, err := h.readSolveRequest(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	sub, err := currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	now := time.Now()
	job := &domain.SolveJob{
		ID:           uuid.NewString(),
		TournamentID: t.ID,
		RequestedBy:  sub,
		Status:       domain.SolveJobPending,
		Parameters:   parameters,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 先保存任务状态再投递，避免 worker 先于状态写入完成
	if err := h.jobs.SaveJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publisher.PublishSolveJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "求解任务已提交", job)
}

func (h *Handler) GetSolveJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		switch {
		case errors.Is(err, jobstore.ErrJobNotFound):
			h.errorResponse(w, r, "求解任务不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if currentRole(r) != domain.RoleAdmin {
		sub, err := currentUserID(r)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if job.RequestedBy != sub {
			h.errorResponse(w, r, "权限不足")
			return
		}
	}

	h.successResponse(w, r, "获取求解任务成功", job)
}

// loadSchedule 优先从 redis 读取赛程，缓存未命中时从数据库读取并回填缓存
func (h *Handler) loadSchedule(tournamentID int64) (*domain.Schedule, error) {
	schedule, err := h.jobs.GetCachedSchedule(tournamentID)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, jobstore.ErrScheduleNotFound) {
		slog.Error("无法读取赛程缓存", "tournament", tournamentID, "error", err)
	}

	schedule, err = h.repository.GetScheduleByTournamentID(tournamentID)
	if err != nil {
		return nil, err
	}

	if err := h.jobs.CacheSchedule(schedule); err != nil {
		slog.Error("无法缓存赛程", "tournament", tournamentID, "error", err)
	}

	return schedule, nil
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	schedule, err := h.loadSchedule(t.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "赛程不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	players, err := h.repository.GetPlayersByTournamentID(t.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取赛程成功", scheduleResponse{
		Schedule: schedule,
		Players:  players,
		Summary:  utils.SummarizeMeetings(schedule, t.TotalPeople()),
	})
}

// SubmitSchedule 保存手动编排的赛程，每一轮的得分由服务端重新计算
func (h *Handler) SubmitSchedule(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	var req struct {
		Rounds [][][]int32 `json:"rounds" validate:"required"`
	}

	if err := h.readAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule := &domain.Schedule{
		TournamentID: t.ID,
		Source:       domain.ScheduleSourceManual,
		Rounds:       make([]domain.ScheduleRound, len(req.Rounds)),
	}
	for i, groups := range req.Rounds {
		schedule.Rounds[i] = domain.ScheduleRound{Round: int32(i), Groups: groups}
	}

	if err := utils.ValidateScheduleWithTournament(schedule, t); err != nil {
		h.badRequest(w, r, err)
		return
	}
	utils.ScoreSchedule(schedule, t.TotalPeople())

	if err := h.repository.InsertSchedule(schedule); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.jobs.CacheSchedule(schedule); err != nil {
		slog.Error("无法缓存赛程", "tournament", t.ID, "error", err)
	}

	h.successResponse(w, r, "保存赛程成功", schedule)
}
