package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabatch/config"
	"mediabatch/task"
)

func testRouter() (*gin.Engine, *config.Config) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{MaxConcurrency: 32, FFBin: "ffmpeg"}
	runner := task.NewRunner(cfg, task.NewRegistry(cfg))
	return SetupRouter(runner, NewSessionStore(), cfg), cfg
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getJSON(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleListTasks(t *testing.T) {
	router, _ := testRouter()
	w := getJSON(router, "/api/v1/tasks")

	require.Equal(t, http.StatusOK, w.Code)
	var infos []task.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 3)
	assert.Equal(t, "image.tools", infos[0].ID)
}

func TestHandleCreateBatch(t *testing.T) {
	t.Run("runs an image batch to completion", func(t *testing.T) {
		router, _ := testRouter()
		in, out := t.TempDir(), t.TempDir()
		// Not a decodable image: the run still completes, with a failed
		// outcome for the file.
		require.NoError(t, os.WriteFile(filepath.Join(in, "a.png"), []byte("x"), 0o644))

		w := postJSON(t, router, "/api/v1/batches", task.Request{
			TaskID:      "image.resize",
			Params:      map[string]any{"target_w": 10},
			InputDir:    in,
			OutputDir:   out,
			Concurrency: 2,
		})
		require.Equal(t, http.StatusAccepted, w.Code)

		var resp struct {
			SessionID string `json:"sessionId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.SessionID)

		// Poll until the background run completes.
		deadline := time.Now().Add(5 * time.Second)
		var view SessionView
		for {
			sw := getJSON(router, fmt.Sprintf("/api/v1/batches/%s", resp.SessionID))
			require.Equal(t, http.StatusOK, sw.Code)
			require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &view))
			if view.State == task.StateCompleted {
				break
			}
			require.True(t, time.Now().Before(deadline), "batch did not complete in time")
			time.Sleep(20 * time.Millisecond)
		}

		assert.Equal(t, 1, view.Processed)
		assert.Equal(t, 1, view.Total)
		assert.Equal(t, out, view.OutputDir)
	})

	t.Run("rejects structurally invalid requests", func(t *testing.T) {
		router, _ := testRouter()
		w := postJSON(t, router, "/api/v1/batches", task.Request{TaskID: "image.resize"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router, _ := testRouter()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetBatchNotFound(t *testing.T) {
	router, _ := testRouter()
	w := getJSON(router, "/api/v1/batches/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{MaxConcurrency: 32, AuthEnable: true, AuthKey: "secret"}
	runner := task.NewRunner(cfg, task.NewRegistry(cfg))
	router := SetupRouter(runner, NewSessionStore(), cfg)

	t.Run("missing token is rejected", func(t *testing.T) {
		w := getJSON(router, "/api/v1/tasks")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "secret")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid key passes regardless of scheme casing", func(t *testing.T) {
		for _, scheme := range []string{"Bearer", "bearer"} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			req.Header.Set("Authorization", scheme+" secret")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, scheme)
		}
	})

	t.Run("health endpoint stays open", func(t *testing.T) {
		w := getJSON(router, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
