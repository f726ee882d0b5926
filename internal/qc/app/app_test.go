package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qcportal/internal/qc/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreDriver:      config.StoreMemory,
		OperationTimeout: 5 * time.Second,
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		JWTIssuer:        "qcportal-test",
		TokenTTL:         time.Hour,
		BcryptCost:       4,
	}
}

func TestNew_MemoryStore(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close(context.Background())

	e := a.Echo()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, e.Routes())
}

func TestNew_RejectsBadSettings(t *testing.T) {
	cfg := memoryConfig()
	cfg.BcryptCost = 99
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.JWTSecret = "short"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
