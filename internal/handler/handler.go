package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/config"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/jobstore"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/queue"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	publisher  *queue.Publisher
	jobs       *jobstore.Store
	metrics    *metrics.Collector

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher *queue.Publisher, jobs *jobstore.Store, collector *metrics.Collector) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		publisher:  publisher,
		jobs:       jobs,
		metrics:    collector,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Handle("/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUsers)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", h.CreateTournament)
			r.Get("/", h.GetAllTournaments)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.tournament)
				r.Use(h.tournamentAccess)
				r.Get("/", h.GetTournament)
				r.Delete("/", h.DeleteTournament)
				r.Route("/players", func(r chi.Router) {
					r.Put("/", h.ReplacePlayers)
					r.Get("/", h.GetPlayers)
				})
				r.Route("/schedule", func(r chi.Router) {
					r.Get("/", h.GetSchedule)
					r.Post("/", h.SubmitSchedule)
					r.Post("/generate", h.GenerateSchedule)
					r.Post("/solve", h.SolveSchedule)
				})
			})
		})

		r.Get("/solve-jobs/{jobID}", h.GetSolveJob)
	})
}
