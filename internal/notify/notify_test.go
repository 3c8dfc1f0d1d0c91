package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"
	"league-tracker/internal/vote"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method  string
	Path    string
	Query   string
	Content string
}

func webhookServer(t *testing.T, status int) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var msg webhookMessage
		json.Unmarshal(body, &msg)

		mu.Lock()
		calls = append(calls, recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Content: msg.Content})
		mu.Unlock()

		w.WriteHeader(status)
		if status < 400 {
			w.Write([]byte(`{"id":"msg-1","channel_id":"chan-1"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func fastOptions() WebhookOptions {
	return WebhookOptions{Interval: time.Millisecond, Burst: 10, Timeout: 5 * time.Second}
}

func testSession() *domain.LiveSession {
	return &domain.LiveSession{
		GameID:   7001,
		Platform: "euw1",
		QueueID:  420,
		Participants: []domain.SessionParticipant{
			{PUUID: "puuid-a", RiotID: "Alpha#EUW", TeamID: 100},
		},
	}
}

func TestWebhook_OpenThenEdit(t *testing.T) {
	srv, calls := webhookServer(t, http.StatusOK)
	w := NewWebhook(srv.URL+"/api/webhooks/1/token", fastOptions(), zerolog.Nop(), metrics.NewMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	session := testSession()
	handle, err := w.SessionOpened(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationHandle{ChannelID: "chan-1", MessageID: "msg-1"}, handle)

	session.Handle = handle
	added := session.Add(domain.SessionParticipant{PUUID: "puuid-b", RiotID: "Bravo#EUW", TeamID: 200})
	updated, err := w.SessionUpdated(ctx, session, added)
	require.NoError(t, err)
	assert.Equal(t, handle, updated)

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPost, got[0].Method)
	assert.Equal(t, "wait=true", got[0].Query)
	assert.Contains(t, got[0].Content, "Alpha#EUW")
	assert.Equal(t, http.MethodPatch, got[1].Method)
	assert.Equal(t, "/api/webhooks/1/token/messages/msg-1", got[1].Path)
	assert.Contains(t, got[1].Content, "Bravo#EUW, red side")
}

func TestWebhook_UpdateWithoutHandlePostsNew(t *testing.T) {
	srv, calls := webhookServer(t, http.StatusOK)
	w := NewWebhook(srv.URL, fastOptions(), zerolog.Nop(), metrics.NewMetrics(prometheus.NewRegistry()))

	handle, err := w.SessionUpdated(context.Background(), testSession(), nil)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", handle.MessageID)
	require.Len(t, calls(), 1)
	assert.Equal(t, http.MethodPost, calls()[0].Method)
}

func TestWebhook_FailureReturnsZeroHandle(t *testing.T) {
	srv, _ := webhookServer(t, http.StatusInternalServerError)
	w := NewWebhook(srv.URL, fastOptions(), zerolog.Nop(), metrics.NewMetrics(prometheus.NewRegistry()))

	handle, err := w.SessionOpened(context.Background(), testSession())
	assert.Error(t, err)
	assert.True(t, handle.IsZero())

	assert.Error(t, w.PenaltyTriggered(context.Background(), domain.PenaltyDecision{PUUID: "p", Level: 1}))
}

func TestFormatMatchResult(t *testing.T) {
	poll := vote.New(7001, time.Now())
	poll, err := vote.Apply(poll, vote.Action{Kind: vote.ActionVote, UserID: "u", Option: vote.OptionWin})
	require.NoError(t, err)

	text := FormatMatchResult(MatchResult{
		Table: domain.PlacementTable{
			MatchID:         "EUW1_7001",
			QueueID:         420,
			DurationSeconds: 1810,
			Rows: []domain.PlacementRow{
				{PUUID: "a", RiotID: "Alpha#EUW", Champion: "Ahri", Role: domain.RoleMiddle, Score: 88.5, Placement: 1, Tracked: true},
				{PUUID: "b", Champion: "Thresh", Role: domain.RoleSupport, Score: 12, Placement: 10},
			},
		},
		Prediction: &poll,
	})

	assert.Contains(t, text, "Ranked Solo/Duo")
	assert.Contains(t, text, "30m10s")
	assert.Contains(t, text, "` 1.*  88.5` Alpha#EUW (Ahri, mid)")
	assert.Contains(t, text, "`10.   12.0` b (Thresh, support)")
	assert.Contains(t, text, "Prediction open: 1 win / 0 loss")
	assert.NotContains(t, text, "Remake")
}

func TestLogNotifier_HandleFromGameID(t *testing.T) {
	n := NewLogNotifier(zerolog.Nop())
	handle, err := n.SessionOpened(context.Background(), testSession())
	require.NoError(t, err)
	assert.Equal(t, "7001", handle.MessageID)
	assert.False(t, handle.IsZero())
}
