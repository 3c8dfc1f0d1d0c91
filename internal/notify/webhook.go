package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

type WebhookOptions struct {
	Interval time.Duration // minimum gap between posts
	Burst    int
	Timeout  time.Duration
}

func DefaultWebhookOptions() WebhookOptions {
	return WebhookOptions{
		Interval: 500 * time.Millisecond,
		Burst:    2,
		Timeout:  constants.ExternalAPITimeout,
	}
}

// Webhook posts to a Discord style webhook: POST ?wait=true creates a
// message and returns its id, PATCH /messages/{id} edits it.
type Webhook struct {
	url     string
	client  *fasthttp.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger
	metrics metrics.TrackerMetrics
}

func NewWebhook(url string, opts WebhookOptions, logger zerolog.Logger, m metrics.TrackerMetrics) *Webhook {
	return &Webhook{
		url: url,
		client: &fasthttp.Client{
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(opts.Interval), opts.Burst),
		timeout: opts.Timeout,
		logger:  logger.With().Str("component", "webhook").Logger(),
		metrics: m,
	}
}

type webhookMessage struct {
	Content string `json:"content"`
}

type webhookResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func (w *Webhook) SessionOpened(ctx context.Context, session *domain.LiveSession) (domain.NotificationHandle, error) {
	handle, err := w.post(ctx, FormatSession(session))
	if err != nil {
		w.metrics.NotificationFailed("session_opened")
		return domain.NotificationHandle{}, fmt.Errorf("announce game %d: %w", session.GameID, err)
	}
	return handle, nil
}

// SessionUpdated edits the existing message when the session has one and
// posts a new message otherwise.
func (w *Webhook) SessionUpdated(ctx context.Context, session *domain.LiveSession, added []domain.SessionParticipant) (domain.NotificationHandle, error) {
	content := FormatSession(session)
	if session.Handle.IsZero() {
		handle, err := w.post(ctx, content)
		if err != nil {
			w.metrics.NotificationFailed("session_updated")
			return domain.NotificationHandle{}, fmt.Errorf("update game %d: %w", session.GameID, err)
		}
		return handle, nil
	}

	if err := w.patch(ctx, session.Handle.MessageID, content); err != nil {
		w.metrics.NotificationFailed("session_updated")
		return session.Handle, fmt.Errorf("edit game %d: %w", session.GameID, err)
	}
	return session.Handle, nil
}

func (w *Webhook) MatchFinalized(ctx context.Context, result MatchResult) error {
	if _, err := w.post(ctx, FormatMatchResult(result)); err != nil {
		w.metrics.NotificationFailed("match_finalized")
		return fmt.Errorf("post result of %s: %w", result.Table.MatchID, err)
	}
	return nil
}

func (w *Webhook) PenaltyTriggered(ctx context.Context, decision domain.PenaltyDecision) error {
	if _, err := w.post(ctx, FormatPenalty(decision)); err != nil {
		w.metrics.NotificationFailed("penalty")
		return fmt.Errorf("post penalty for %s: %w", decision.PUUID, err)
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, content string) (domain.NotificationHandle, error) {
	body, err := w.send(ctx, fasthttp.MethodPost, w.url+"?wait=true", content)
	if err != nil {
		return domain.NotificationHandle{}, err
	}

	var resp webhookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.NotificationHandle{}, fmt.Errorf("decode webhook response: %w", err)
	}
	if resp.ID == "" {
		return domain.NotificationHandle{}, fmt.Errorf("webhook response carried no message id")
	}
	return domain.NotificationHandle{ChannelID: resp.ChannelID, MessageID: resp.ID}, nil
}

func (w *Webhook) patch(ctx context.Context, messageID, content string) error {
	_, err := w.send(ctx, fasthttp.MethodPatch, w.url+"/messages/"+messageID, content)
	return err
}

func (w *Webhook) send(ctx context.Context, method, uri, content string) ([]byte, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("webhook rate limiter: %w", err)
	}

	payload, err := json.Marshal(webhookMessage{Content: content})
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(w.timeout)
	}
	if err := w.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("webhook %s: %w", method, err)
	}

	if resp.StatusCode() >= 400 {
		w.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("method", method).
			Msg("webhook rejected message")
		return nil, fmt.Errorf("webhook returned HTTP %d", resp.StatusCode())
	}
	return append([]byte(nil), resp.Body()...), nil
}
