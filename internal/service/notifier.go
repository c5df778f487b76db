package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EventTokenIssued is the event type of a reservation token notification.
const EventTokenIssued = "PAYMENT_TOKEN_ISSUED"

// Headers set on every notification request.
const (
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
)

// TokenPayload is the JSON body posted to the notifier webhook.
type TokenPayload struct {
	EventType string           `json:"event_type"`
	Data      TokenPayloadData `json:"data"`
}

// TokenPayloadData holds the reservation details the payer needs.
type TokenPayloadData struct {
	SessionID string          `json:"session_id"`
	ClientID  string          `json:"client_id"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookNotifierConfig configures webhook delivery.
type WebhookNotifierConfig struct {
	URL            string
	Secret         string
	RetryIntervals []time.Duration
}

// WebhookNotifier implements ports.TokenNotifier by posting a signed payload
// to a webhook that relays the token to the payer (email, SMS).
type WebhookNotifier struct {
	cfg        WebhookNotifierConfig
	repo       ports.NotificationRepository
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	lifetime   context.Context
	wait       func(context.Context, time.Duration) error
	inflight   sync.WaitGroup
	log        zerolog.Logger
}

// NewWebhookNotifier creates a notifier that delivers in the background.
// Deliveries stop retrying once lifetime is cancelled. repo may be nil, in
// which case attempts are only logged.
func NewWebhookNotifier(
	lifetime context.Context,
	cfg WebhookNotifierConfig,
	repo ports.NotificationRepository,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) *WebhookNotifier {
	return &WebhookNotifier{
		cfg:        cfg,
		repo:       repo,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		lifetime:   lifetime,
		wait:       sleepContext,
		log:        log,
	}
}

// Wait blocks until every background delivery has returned.
func (s *WebhookNotifier) Wait() {
	s.inflight.Wait()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NotifyReservation builds and signs the payload, then delivers it with
// retries on a separate goroutine.
func (s *WebhookNotifier) NotifyReservation(ctx context.Context, n domain.TokenNotification) error {
	now := time.Now()
	payload := TokenPayload{
		EventType: EventTokenIssued,
		Data: TokenPayloadData{
			SessionID: n.ReservationID.String(),
			ClientID:  n.ClientID.String(),
			Email:     n.Email,
			Phone:     n.Phone,
			Token:     n.Token,
			Amount:    n.Amount,
			ExpiresAt: n.ExpiresAt,
			Timestamp: now.Unix(),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal token payload: %w", err)
	}
	signature := s.sigSvc.Sign(s.cfg.Secret, SignedContent(now.Unix(), body))

	delivery := &domain.NotificationDelivery{
		ID:            uuid.New(),
		ReservationID: n.ReservationID,
		ClientID:      n.ClientID,
		Destination:   s.cfg.URL,
		Payload:       string(body),
		Status:        domain.DeliveryPending,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, delivery); err != nil {
			s.log.Warn().Err(err).Str("session_id", n.ReservationID.String()).Msg("notifier: failed to record delivery")
		}
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.deliverWithRetries(s.lifetime, delivery, body, signature, now.Unix())
	}()

	return nil
}

func (s *WebhookNotifier) deliverWithRetries(ctx context.Context, delivery *domain.NotificationDelivery, body []byte, signature string, timestamp int64) {
	sessionID := delivery.ReservationID.String()

	for attempt := 0; attempt <= len(s.cfg.RetryIntervals); attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, s.cfg.RetryIntervals[attempt-1]); err != nil {
				s.log.Warn().Str("session_id", sessionID).Int("attempt", delivery.Attempt).Msg("notifier: shutting down, delivery left pending")
				return
			}
		}
		delivery.Attempt = attempt + 1

		status, err := s.post(ctx, body, signature, timestamp)
		if ctx.Err() != nil {
			s.log.Warn().Str("session_id", sessionID).Int("attempt", delivery.Attempt).Msg("notifier: shutting down, delivery left pending")
			return
		}
		if status != 0 {
			delivery.HTTPStatus = &status
		}
		if err == nil && status >= 200 && status < 300 {
			delivery.Status = domain.DeliveryDelivered
			delivery.LastError = nil
			s.record(ctx, delivery)
			metrics.NotificationDeliveries.WithLabelValues(string(domain.DeliveryDelivered)).Inc()
			s.log.Info().Str("session_id", sessionID).Int("attempt", delivery.Attempt).Int("status", status).Msg("notifier: token delivered")
			return
		}

		msg := fmt.Sprintf("non-2xx response: %d", status)
		if err != nil {
			msg = err.Error()
		}
		delivery.LastError = &msg
		s.record(ctx, delivery)
		s.log.Warn().Str("session_id", sessionID).Int("attempt", delivery.Attempt).Str("error", msg).Msg("notifier: delivery failed")
	}

	delivery.Status = domain.DeliveryFailed
	s.record(ctx, delivery)
	metrics.NotificationDeliveries.WithLabelValues(string(domain.DeliveryFailed)).Inc()
	s.log.Error().Str("session_id", sessionID).Msg("notifier: all retry attempts exhausted")
}

func (s *WebhookNotifier) post(ctx context.Context, body []byte, signature string, timestamp int64) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (s *WebhookNotifier) record(ctx context.Context, delivery *domain.NotificationDelivery) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Update(ctx, delivery); err != nil {
		s.log.Warn().Err(err).Str("delivery_id", delivery.ID.String()).Msg("notifier: failed to update delivery")
	}
}

// logNotifier is used when no webhook is configured.
type logNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier that only records the delivery in the log.
// The token itself is never logged.
func NewLogNotifier(log zerolog.Logger) ports.TokenNotifier {
	return &logNotifier{log: log}
}

func (s *logNotifier) NotifyReservation(_ context.Context, n domain.TokenNotification) error {
	s.log.Info().
		Str("session_id", n.ReservationID.String()).
		Str("email", n.Email).
		Str("amount", n.Amount.String()).
		Msg("notifier: no webhook configured, token returned to caller only")
	return nil
}
