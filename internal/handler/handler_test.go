package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/config"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/utils"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Solver.Generations = 30
	cfg.Solver.InitialPopulation = 5
	cfg.Solver.RandomMutations = 2
	cfg.Solver.MaxDescendantsToExplore = 100
	cfg.Solver.SyncMaxPeople = 64
	cfg.Solver.MaxPeople = 2048
	cfg.NewUser.PasswordLength = 12
	return cfg
}

// newTestHandler 不连接数据库、redis 和 rabbitmq，只能测试不访问外部依赖的路径
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(newTestConfig(), nil, nil, nil, metrics.NewCollector(prometheus.NewRegistry()))
	require.NoError(t, err)
	return h
}

type response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func withIdentity(r *http.Request, sub string, role domain.Role) *http.Request {
	ctx := context.WithValue(r.Context(), SubCtxKey, sub)
	ctx = context.WithValue(ctx, RoleCtxKey, string(role))
	return r.WithContext(ctx)
}

func withTournament(r *http.Request, t *domain.Tournament) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), TournamentCtx, t))
}

func TestRoutes_RequireLogin(t *testing.T) {
	h := newTestHandler(t)
	h.RegisterRoutes()

	for _, path := range []string{"/tournaments", "/my-info", "/users", "/solve-jobs/abc"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			resp := decode[any](t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, "用户未登录", resp.Message)
		})
	}
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)
	h.Mux.With(h.auth).Get("/probe", func(w http.ResponseWriter, r *http.Request) {
		sub, err := currentUserID(r)
		require.NoError(t, err)
		h.successResponse(w, r, string(currentRole(r)), sub)
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, _, err := h.signToken(7, string(domain.RoleOrganizer))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.Mux.ServeHTTP(rec, req)

		resp := decode[int64](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, string(domain.RoleOrganizer), resp.Message)
		assert.Equal(t, int64(7), resp.Data)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := newTestHandler(t)
		other.config.JWT.Secret = "another-secret"
		token, _, err := other.signToken(7, string(domain.RoleAdmin))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.Mux.ServeHTTP(rec, req)

		resp := decode[any](t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "无效的令牌", resp.Message)
	})
}

func TestRecoverer(t *testing.T) {
	h := newTestHandler(t)
	h.Mux.Use(h.recoverer)
	h.Mux.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "服务器内部错误", resp.Message)
}

func TestLogin_InvalidRequest(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"MalformedJSON", `{"username":`},
		{"MissingPassword", `{"username":"admin"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))

			resp := decode[any](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})
	guarded := h.RequiredRole([]domain.Role{domain.RoleAdmin})(next)

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "1", domain.RoleAdmin))
	assert.True(t, decode[any](t, rec).Success)

	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "2", domain.RoleOrganizer))
	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "权限不足", resp.Message)
}

func TestTournamentAccess(t *testing.T) {
	h := newTestHandler(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})
	tournament := &domain.Tournament{ID: 1, OrganizerID: 7}

	cases := []struct {
		name    string
		sub     string
		role    domain.Role
		allowed bool
	}{
		{"Owner", "7", domain.RoleOrganizer, true},
		{"OtherOrganizer", "8", domain.RoleOrganizer, false},
		{"Admin", "1", domain.RoleAdmin, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withTournament(withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), tc.sub, tc.role), tournament)
			rec := httptest.NewRecorder()
			h.tournamentAccess(next).ServeHTTP(rec, req)
			assert.Equal(t, tc.allowed, decode[any](t, rec).Success)
		})
	}
}

func TestTournamentLoader_InvalidID(t *testing.T) {
	h := newTestHandler(t)
	h.Mux.With(h.tournament).Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/abc", nil))

	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "赛事ID无效", resp.Message)
}

func TestGenerateSchedule(t *testing.T) {
	h := newTestHandler(t)
	tournament := &domain.Tournament{ID: 3, NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 3}

	for _, body := range []string{`{"seed": 42}`, ``} {
		req := withTournament(httptest.NewRequest(http.MethodPost, "/tournaments/3/schedule/generate", strings.NewReader(body)), tournament)
		rec := httptest.NewRecorder()
		h.GenerateSchedule(rec, req)

		resp := decode[scheduleResponse](t, rec)
		require.True(t, resp.Success, resp.Message)
		require.NotNil(t, resp.Data.Schedule)
		assert.Equal(t, domain.ScheduleSourceGenerated, resp.Data.Schedule.Source)
		assert.NoError(t, utils.ValidateScheduleWithTournament(resp.Data.Schedule, tournament))
		assert.Len(t, resp.Data.Schedule.Rounds, 3)
		assert.GreaterOrEqual(t, resp.Data.Summary.MaxMeetings, int32(1))
	}
}

func TestGenerateSchedule_SingleRoundIsPerfect(t *testing.T) {
	h := newTestHandler(t)
	tournament := &domain.Tournament{ID: 4, NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1}

	req := withTournament(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seed": 1}`)), tournament)
	rec := httptest.NewRecorder()
	h.GenerateSchedule(rec, req)

	resp := decode[scheduleResponse](t, rec)
	require.True(t, resp.Success, resp.Message)
	require.Len(t, resp.Data.Schedule.Rounds, 1)
	assert.Equal(t, int64(0), resp.Data.Schedule.Rounds[0].RoundScore)
	assert.Equal(t, int32(1), resp.Data.Summary.MaxMeetings)
	assert.Equal(t, int32(4), resp.Data.Summary.UnmetPairs)
}

func TestGenerateSchedule_Rejected(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name       string
		tournament *domain.Tournament
		body       string
	}{
		{"TooManyPeople", &domain.Tournament{ID: 5, NumberOfGroups: 10, SizeOfGroups: 10, NumberOfRounds: 2}, ``},
		{"NegativeGenerations", &domain.Tournament{ID: 6, NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1}, `{"generations": -1}`},
		{"MalformedJSON", &domain.Tournament{ID: 7, NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1}, `{"seed":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withTournament(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)), tc.tournament)
			rec := httptest.NewRecorder()
			h.GenerateSchedule(rec, req)

			resp := decode[any](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestClampForSync(t *testing.T) {
	h := newTestHandler(t)
	seed := int64(3)

	p := h.clampForSync(domain.SolveParameters{
		Generations:             1000,
		InitialPopulation:       2,
		RandomMutations:         1000,
		MaxDescendantsToExplore: 10000,
		Seed:                    &seed,
	})

	assert.Equal(t, int32(30), p.Generations)
	assert.Equal(t, int32(2), p.InitialPopulation)
	assert.Equal(t, int32(2), p.RandomMutations)
	assert.Equal(t, int32(100), p.MaxDescendantsToExplore)
	assert.Same(t, &seed, p.Seed)
}

func TestSolveSchedule_TooManyPeople(t *testing.T) {
	h := newTestHandler(t)
	h.config.Solver.MaxPeople = 100
	tournament := &domain.Tournament{ID: 10, NumberOfGroups: 30, SizeOfGroups: 4, NumberOfRounds: 2}

	req := withIdentity(withTournament(httptest.NewRequest(http.MethodPost, "/", nil), tournament), "7", domain.RoleOrganizer)
	rec := httptest.NewRecorder()
	h.SolveSchedule(rec, req)

	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "超过上限 100")
}

func TestSubmitSchedule_InvalidPartition(t *testing.T) {
	h := newTestHandler(t)
	tournament := &domain.Tournament{ID: 8, NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1}

	req := withTournament(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rounds": [[[0, 1], [1, 2]]]}`)), tournament)
	rec := httptest.NewRecorder()
	h.SubmitSchedule(rec, req)

	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "第 1 轮")
}

func TestReplacePlayers_WrongCount(t *testing.T) {
	h := newTestHandler(t)
	tournament := &domain.Tournament{ID: 9, NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1}

	body := `{"players": [{"fullName": "王伟"}, {"fullName": "李娜"}, {"fullName": "张强"}]}`
	req := withTournament(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)), tournament)
	rec := httptest.NewRecorder()
	h.ReplacePlayers(rec, req)

	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "参赛人数应为 4")
}

func TestCreateTournament_TooManyPeople(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"FieldLimit", `{"name": "周末混合赛", "numberOfGroups": 16777216, "sizeOfGroups": 128, "numberOfRounds": 1}`},
		{"TotalLimit", `{"name": "周末混合赛", "numberOfGroups": 1025, "sizeOfGroups": 2, "numberOfRounds": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withIdentity(httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(tc.body)), "7", domain.RoleOrganizer)
			rec := httptest.NewRecorder()
			h.CreateTournament(rec, req)

			resp := decode[any](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestCreateTournament_Validation(t *testing.T) {
	h := newTestHandler(t)

	body := `{"name": "周末混合赛", "numberOfGroups": 2, "sizeOfGroups": 1, "numberOfRounds": 3}`
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(body)), "7", domain.RoleOrganizer)
	rec := httptest.NewRecorder()
	h.CreateTournament(rec, req)

	resp := decode[any](t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "SizeOfGroups")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	h.RegisterRoutes()

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
