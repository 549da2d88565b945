package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/analytics"
	"github.com/wardenlabs/realm-tracker/internal/export"
	"github.com/wardenlabs/realm-tracker/internal/model"
	"github.com/wardenlabs/realm-tracker/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Error("api: health check", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		zap.L().Error("api: login lookup", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	// Same response for unknown user and wrong password.
	if user == nil || !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		zap.L().Error("api: issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"token":    token,
		"username": user.Username,
		"role":     user.Role,
	}, nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	players, err := s.store.SearchPlayers(r.Context(), q, queryInt(r, "limit", 20))
	if err != nil {
		zap.L().Error("api: search players", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, players, &Metadata{Count: len(players)})
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	lordID := chi.URLParam(r, "lordID")

	stats, err := s.analytics.PlayerStats(r.Context(), lordID)
	if err != nil {
		zap.L().Error("api: player stats", zap.String("lord_id", lordID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if stats == nil {
		respondError(w, http.StatusNotFound, "player not found")
		return
	}
	respond(w, http.StatusOK, stats, nil)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.analytics.Leaderboard(r.Context(), analytics.LeaderboardFilter{
		Metric:    r.URL.Query().Get("metric"),
		Alliances: splitCSV(r.URL.Query().Get("alliances")),
		Limit:     queryInt(r, "limit", 0),
		Offset:    queryInt(r, "offset", 0),
	})
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownMetric) {
			respondError(w, http.StatusBadRequest, "unknown metric")
			return
		}
		zap.L().Error("api: leaderboard", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, board, &Metadata{Count: len(board.Entries)})
}

func (s *Server) handleMerits(w http.ResponseWriter, r *http.Request) {
	entries, err := s.analytics.MeritReport(r.Context(), splitCSV(r.URL.Query().Get("alliances")))
	if err != nil {
		zap.L().Error("api: merit report", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, entries, &Metadata{Count: len(entries)})
}

func (s *Server) handleAlliances(w http.ResponseWriter, r *http.Request) {
	health, err := s.analytics.AllianceHealth(r.Context(), splitCSV(r.URL.Query().Get("tags")))
	if err != nil {
		zap.L().Error("api: alliance health", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, health, &Metadata{Count: len(health)})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := s.analytics.PowerDistribution(r.Context())
	if err != nil {
		zap.L().Error("api: power distribution", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, dist, &Metadata{Count: dist.Total})
}

func (s *Server) handleInactivity(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	// Default to the two most recent snapshots.
	if from == "" || to == "" {
		snaps, err := s.store.LatestSnapshots(r.Context(), r.URL.Query().Get("kingdom"), 2)
		if err != nil {
			zap.L().Error("api: latest snapshots", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if len(snaps) < 2 {
			respond(w, http.StatusOK, []analytics.InactivePlayer{}, &Metadata{})
			return
		}
		to, from = snaps[0].ID, snaps[1].ID
	}

	flagged, err := s.analytics.InactivityReport(r.Context(), from, to)
	if err != nil {
		zap.L().Error("api: inactivity report", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, flagged, &Metadata{Count: len(flagged)})
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.store.ListUploads(r.Context(), store.UploadFilter{
		Status:  model.UploadStatus(r.URL.Query().Get("status")),
		Kingdom: r.URL.Query().Get("kingdom"),
		Limit:   queryInt(r, "limit", 0),
		Offset:  queryInt(r, "offset", 0),
	})
	if err != nil {
		zap.L().Error("api: list uploads", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, uploads, &Metadata{Count: len(uploads)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.export.Workbook(r.Context())
	if err != nil {
		zap.L().Error("api: export workbook", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zap.L().Error("api: write export", zap.Error(err))
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
