package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func captureLogs(t *testing.T, lvl zerolog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, lvl)
	t.Cleanup(func() { Init("info") })
	return &buf
}

func TestWith_TagsComponent(t *testing.T) {
	buf := captureLogs(t, zerolog.InfoLevel)

	l := With("stats.entry")
	l.Info().Str("entry_id", "e1").Msg("applied")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("failed to parse log line %q: %v", buf.String(), err)
	}
	if line["component"] != "stats.entry" {
		t.Errorf("component = %v, expected %q", line["component"], "stats.entry")
	}
	if line["entry_id"] != "e1" {
		t.Errorf("entry_id = %v, expected %q", line["entry_id"], "e1")
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLogs(t, zerolog.WarnLevel)

	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message should be written at warn level")
	}
}

func TestGinRecovery_ReturnsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	captureLogs(t, zerolog.InfoLevel)

	router := gin.New()
	router.Use(GinRecovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
