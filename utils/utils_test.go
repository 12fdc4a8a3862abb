package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillswap/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFromService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{&service.AppError{Code: service.CodeNotFound, Message: "user not found"}, http.StatusNotFound, service.CodeNotFound, "user not found"},
		{&service.AppError{Code: service.CodeValidation, Message: "bad id"}, http.StatusBadRequest, service.CodeValidation, "bad id"},
		{&service.AppError{Code: service.CodeInvalidState, Message: "no request"}, http.StatusConflict, service.CodeInvalidState, "no request"},
		{fmt.Errorf("wrapped: %w", service.ErrConcurrencyConflict), http.StatusConflict, service.CodeConcurrencyConflict, service.ErrConcurrencyConflict.Message},
		{&service.AppError{Code: service.CodeInternal, Message: "failed to save", Err: fmt.Errorf("pq: secret")}, http.StatusInternalServerError, service.CodeInternal, "internal server error"},
		{fmt.Errorf("plain"), http.StatusInternalServerError, service.CodeInternal, "internal server error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		ErrorFromService(c, tt.err)

		assert.Equal(t, tt.wantStatus, w.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tt.wantStatus, resp.Code)
		assert.Equal(t, tt.wantCode, resp.ErrorCode)
		assert.Equal(t, tt.wantMsg, resp.Message)
	}
}

func TestSuccessResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessResponse(c, gin.H{"ok": true})

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Empty(t, resp.ErrorCode)
	assert.Equal(t, "success", resp.Message)
}

func TestInitLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	InitLoggerWithWriter("warn", "json", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "skillswap", line["service"])

	buf.Reset()
	InitLoggerWithWriter("nonsense", "json", &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
