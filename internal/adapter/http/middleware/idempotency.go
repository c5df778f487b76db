package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxIdempotencyKeyLen = 128

type cachedResponse struct {
	Fingerprint string          `json:"fingerprint"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

// callerFields identify whose wallet or reservation a write targets.
type callerFields struct {
	Documento string `json:"documento"`
	Telefono  string `json:"telefono"`
	SessionID string `json:"session_id"`
}

// captureWriter tees the response body.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a successful POST carrying the
// same Idempotency-Key. Keys are scoped to the caller named in the body
// (document and phone, or session id), so one client can never receive
// another client's response. Reusing a key with a different body is a 409.
// Requests without the header pass through untouched. Lookup or store
// failures only log.
func Idempotency(cache ports.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if c.Request.Method != "POST" || idemKey == "" {
			c.Next()
			return
		}
		if len(idemKey) > maxIdempotencyKeyLen {
			idemKey = idemKey[:maxIdempotencyKeyLen]
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, apperror.Validation("Malformed request body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := c.Request.URL.Path + ":" + callerScope(body) + ":" + idemKey
		fingerprint := bodyFingerprint(body)

		cached, err := cache.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency lookup failed")
		}
		if cached != nil {
			var stored cachedResponse
			if err := json.Unmarshal(cached, &stored); err == nil {
				if stored.Fingerprint != fingerprint {
					response.Error(c, apperror.ErrIdempotencyConflict())
					c.Abort()
					return
				}
				c.Header("Idempotent-Replayed", "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
			log.Warn().Str("key", key).Msg("discarding unreadable idempotency entry")
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}
		payload, err := json.Marshal(cachedResponse{Fingerprint: fingerprint, Status: status, Body: w.buf.Bytes()})
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency encode failed")
			return
		}
		if err := cache.Set(c.Request.Context(), key, payload, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency store failed")
		}
	}
}

// callerScope hashes the caller identity found in body. Bodies that do not
// decode share the anonymous scope; the fingerprint still guards them.
func callerScope(body []byte) string {
	var f callerFields
	_ = json.Unmarshal(body, &f)
	sum := sha256.Sum256([]byte(f.Documento + "\x00" + f.Telefono + "\x00" + f.SessionID))
	return hex.EncodeToString(sum[:])
}

// bodyFingerprint hashes the body with object keys in canonical order, so
// formatting differences do not count as a different request.
func bodyFingerprint(body []byte) string {
	canonical := body
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil {
		if b, err := json.Marshal(v); err == nil {
			canonical = b
		}
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
