package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"league-tracker/internal/api"
	"league-tracker/internal/database"
	"league-tracker/internal/domain"
	"league-tracker/internal/middleware"
	"league-tracker/internal/repository"
	"league-tracker/internal/service"
	"league-tracker/internal/vote"

	"github.com/elliotchance/pie/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// GatewayStatus is the operational view of the upstream gateway.
type GatewayStatus interface {
	Stats() api.Stats
	LatchedFamilies() map[api.Family]time.Time
	ResetCredentials(family api.Family)
}

type OpsServer struct {
	db       *sql.DB
	gateway  GatewayStatus
	sessions *repository.SessionRepository
	votes    *service.VoteService
	accounts *service.AccountService
	registry *prometheus.Registry
	clock    clockwork.Clock
	logger   zerolog.Logger
	started  time.Time
}

func NewOpsServer(
	db *sql.DB,
	gateway GatewayStatus,
	sessions *repository.SessionRepository,
	votes *service.VoteService,
	accounts *service.AccountService,
	registry *prometheus.Registry,
	clock clockwork.Clock,
	logger zerolog.Logger,
) *OpsServer {
	return &OpsServer{
		db:       db,
		gateway:  gateway,
		sessions: sessions,
		votes:    votes,
		accounts: accounts,
		registry: registry,
		clock:    clock,
		logger:   logger,
		started:  clock.Now(),
	}
}

func (s *OpsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{gameId}/votes", s.getPoll)
	mux.HandleFunc("POST /api/sessions/{gameId}/votes", s.vote)
	mux.HandleFunc("POST /api/gateway/credentials/reset", s.resetCredentials)
	mux.HandleFunc("GET /api/accounts", s.listAccounts)
	mux.HandleFunc("POST /api/accounts", s.linkAccount)
	mux.HandleFunc("DELETE /api/accounts/{puuid}", s.unlinkAccount)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return middleware.RequestID(s.logger)(c.Handler(mux))
}

type statusResponse struct {
	Uptime       string               `json:"uptime"`
	Gateway      api.Stats            `json:"gateway"`
	Latched      map[string]time.Time `json:"latchedFamilies"`
	OpenSessions int                  `json:"openSessions"`
}

type participantResponse struct {
	PUUID      string    `json:"puuid"`
	RiotID     string    `json:"riotId"`
	ChampionID int       `json:"championId"`
	TeamID     int       `json:"teamId"`
	JoinedAt   time.Time `json:"joinedAt"`
}

type sessionResponse struct {
	GameID        int64                 `json:"gameId"`
	Platform      string                `json:"platform"`
	QueueID       int                   `json:"queueId"`
	GameStartTime time.Time             `json:"gameStartTime"`
	OpenedAt      time.Time             `json:"openedAt"`
	Announced     bool                  `json:"announced"`
	Participants  []participantResponse `json:"participants"`
}

type pollResponse struct {
	GameID  int64             `json:"gameId"`
	State   vote.State        `json:"state"`
	Win     int               `json:"win"`
	Loss    int               `json:"loss"`
	Votes   map[string]string `json:"votes"`
	Summary string            `json:"summary"`
}

type voteRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

type linkRequest struct {
	OwnerID  string `json:"ownerId"`
	Platform string `json:"platform"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type accountResponse struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"ownerId"`
	Platform string    `json:"platform"`
	PUUID    string    `json:"puuid"`
	RiotID   string    `json:"riotId"`
	Linked   time.Time `json:"linkedAt"`
}

func (s *OpsServer) health(w http.ResponseWriter, r *http.Request) {
	version, err := database.Check(r.Context(), s.db)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "schemaVersion": version})
}

func (s *OpsServer) status(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	latched := make(map[string]time.Time)
	for family, at := range s.gateway.LatchedFamilies() {
		latched[string(family)] = at
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Uptime:       s.clock.Since(s.started).Round(time.Second).String(),
		Gateway:      s.gateway.Stats(),
		Latched:      latched,
		OpenSessions: len(sessions),
	})
}

func (s *OpsServer) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, sessionResponse{
			GameID:        session.GameID,
			Platform:      session.Platform,
			QueueID:       session.QueueID,
			GameStartTime: session.GameStartTime,
			OpenedAt:      session.OpenedAt,
			Announced:     !session.Handle.IsZero(),
			Participants: pie.Map(session.Participants, func(p domain.SessionParticipant) participantResponse {
				return participantResponse{
					PUUID:      p.PUUID,
					RiotID:     p.RiotID,
					ChampionID: p.ChampionID,
					TeamID:     p.TeamID,
					JoinedAt:   p.JoinedAt,
				}
			}),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *OpsServer) getPoll(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	poll, err := s.votes.Get(r.Context(), gameID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pollFrom(poll))
}

func (s *OpsServer) vote(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	poll, err := s.votes.OnUserAction(r.Context(), gameID, req.Action, req.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pollFrom(poll))
}

func (s *OpsServer) resetCredentials(w http.ResponseWriter, r *http.Request) {
	family := api.Family(r.URL.Query().Get("family"))
	if family != "" && !pie.Contains(api.Families, family) {
		writeError(w, http.StatusBadRequest, "unknown endpoint family "+string(family))
		return
	}

	s.gateway.ResetCredentials(family)
	zerolog.Ctx(r.Context()).Info().Str("family", string(family)).Msg("credential latch reset")
	w.WriteHeader(http.StatusNoContent)
}

func (s *OpsServer) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pie.Map(accounts, accountFrom))
}

func (s *OpsServer) linkAccount(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OwnerID == "" || req.Platform == "" || req.GameName == "" || req.TagLine == "" {
		writeError(w, http.StatusBadRequest, "ownerId, platform, gameName and tagLine are required")
		return
	}

	account, err := s.accounts.Link(r.Context(), req.OwnerID, req.Platform, req.GameName, req.TagLine)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountFrom(*account))
}

func (s *OpsServer) unlinkAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Unlink(r.Context(), r.PathValue("puuid")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps domain errors onto status codes. Anything unexpected is a 500.
func (s *OpsServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *api.RequestError
	switch {
	case errors.Is(err, service.ErrNoPoll),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, vote.ErrClosed),
		errors.Is(err, service.ErrAlreadyTracked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, vote.ErrUnknownAction),
		errors.Is(err, vote.ErrMissingUser),
		errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, api.ErrCredentialsInvalid):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pollFrom(p vote.Poll) pollResponse {
	tally := vote.TallyOf(p)
	votes := make(map[string]string, len(p.Votes))
	for user, opt := range p.Votes {
		votes[user] = string(opt)
	}
	return pollResponse{
		GameID:  p.GameID,
		State:   p.State,
		Win:     tally.Win,
		Loss:    tally.Loss,
		Votes:   votes,
		Summary: vote.Render(p),
	}
}

func accountFrom(a domain.TrackedAccount) accountResponse {
	return accountResponse{
		ID:       a.ID,
		OwnerID:  a.OwnerID,
		Platform: a.Platform,
		PUUID:    a.PUUID,
		RiotID:   a.RiotID(),
		Linked:   a.CreatedAt,
	}
}

func gameIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	gameID, err := strconv.ParseInt(r.PathValue("gameId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return 0, false
	}
	return gameID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
