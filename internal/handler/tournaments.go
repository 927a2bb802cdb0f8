package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/utils"
)

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name" validate:"required,max=128"`
		Description    string `json:"description"`
		NumberOfGroups int32  `json:"numberOfGroups" validate:"min=1,max=2048"`
		SizeOfGroups   int32  `json:"sizeOfGroups" validate:"min=2,max=2048"`
		NumberOfRounds int32  `json:"numberOfRounds" validate:"min=1"`
	}

	if err := h.readAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if totalPeople := int(req.NumberOfGroups) * int(req.SizeOfGroups); totalPeople > h.config.Solver.MaxPeople {
		h.errorResponse(w, r, fmt.Sprintf("参赛总人数 %d 超过上限 %d", totalPeople, h.config.Solver.MaxPeople))
		return
	}

	sub, err := currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	t := &domain.Tournament{
		Name:           req.Name,
		Description:    req.Description,
		NumberOfGroups: req.NumberOfGroups,
		SizeOfGroups:   req.SizeOfGroups,
		NumberOfRounds: req.NumberOfRounds,
		OrganizerID:    sub,
	}

	if err := h.repository.CreateTournament(t); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "tournaments_name_key":
				h.badRequest(w, r, errors.New("赛事名称已存在"))
			case "tournaments_organizer_id_fkey":
				h.errorResponse(w, r, "组织者不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建赛事成功", t)
}

// GetAllTournaments 管理员可以看到所有赛事，组织者只能看到自己创建的赛事
func (h *Handler) GetAllTournaments(w http.ResponseWriter, r *http.Request) {
	var organizerID int64
	if currentRole(r) != domain.RoleAdmin {
		sub, err := currentUserID(r)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		organizerID = sub
	}

	tournaments, err := h.repository.GetAllTournaments(organizerID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取赛事列表成功", tournaments)
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)
	h.successResponse(w, r, "获取赛事成功", t)
}

func (h *Handler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	if err := h.repository.DeleteTournament(t.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.jobs.InvalidateSchedule(t.ID); err != nil {
		slog.Error("无法删除赛程缓存", "tournament", t.ID, "error", err)
	}

	h.successResponse(w, r, "删除赛事成功", nil)
}

// ReplacePlayers 参赛者的编号即其在请求列表中的位置
func (h *Handler) ReplacePlayers(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	var req struct {
		Players []struct {
			FullName string `json:"fullName" validate:"required"`
			Handle   string `json:"handle" validate:"omitempty,max=64"`
		} `json:"players" validate:"required,dive"`
	}

	if err := h.readAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	players := make([]domain.Player, len(req.Players))
	for i, p := range req.Players {
		fullName := strings.TrimSpace(p.FullName)
		handle := strings.TrimSpace(p.Handle)
		if handle == "" {
			handle = utils.GenerateHandleFromChineseName(fullName)
		}
		players[i] = domain.Player{
			TournamentID: t.ID,
			Index:        int32(i),
			FullName:     fullName,
			Handle:       handle,
		}
	}

	if err := utils.ValidateRoster(players, t); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.ReplacePlayers(t.ID, players); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新参赛名单成功", players)
}

func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TournamentCtx).(*domain.Tournament)

	players, err := h.repository.GetPlayersByTournamentID(t.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取参赛名单成功", players)
}
