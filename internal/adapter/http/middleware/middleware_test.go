package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, body []byte) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func serviceAuthRouter(tokenSvc ports.TokenService, nonces ports.NonceStore) *gin.Engine {
	r := gin.New()
	r.POST("/rpc", ServiceAuth(tokenSvc, nonces, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(CtxServiceSubject)})
	})
	return r
}

func TestServiceAuth_MissingBearer(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	w := httptest.NewRecorder()
	serviceAuthRouter(tokenSvc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rpc", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "401", env.Code)
}

func TestServiceAuth_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	tokenSvc.EXPECT().Validate("bad").Return(nil, errors.New("signature is invalid"))

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	serviceAuthRouter(tokenSvc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceAuth_AcceptsFreshToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	nonces := mocks.NewMockNonceStore(ctrl)

	claims := &ports.TokenClaims{Subject: "api-gateway", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Minute)}
	tokenSvc.EXPECT().Validate("good").Return(claims, nil)
	nonces.EXPECT().Claim(gomock.Any(), "jti:jti-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, ttl time.Duration) (bool, error) {
			assert.Greater(t, ttl, time.Minute)
			return true, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	serviceAuthRouter(tokenSvc, nonces).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api-gateway")
}

func TestServiceAuth_RejectsReplayedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	nonces := mocks.NewMockNonceStore(ctrl)

	claims := &ports.TokenClaims{Subject: "api-gateway", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Minute)}
	tokenSvc.EXPECT().Validate("good").Return(claims, nil)
	nonces.EXPECT().Claim(gomock.Any(), "jti:jti-1", gomock.Any()).Return(false, nil)

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	serviceAuthRouter(tokenSvc, nonces).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Service token already used", decodeEnvelope(t, w.Body.Bytes()).Message)
}

func TestServiceAuth_NonceStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	nonces := mocks.NewMockNonceStore(ctrl)

	claims := &ports.TokenClaims{Subject: "api-gateway", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Minute)}
	tokenSvc.EXPECT().Validate("good").Return(claims, nil)
	nonces.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	serviceAuthRouter(tokenSvc, nonces).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "500", decodeEnvelope(t, w.Body.Bytes()).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(response.RequestIDKey))
	})

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Body.String())
		assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
	})

	t.Run("generates id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

		assert.Len(t, w.Body.String(), 36)
		assert.Equal(t, w.Body.String(), w.Header().Get(HeaderRequestID))
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "500", env.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodySize(16))
	r.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(body))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
