package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"silence-excise/internal/job"
	"silence-excise/internal/samplecache"
	"silence-excise/internal/transcoder"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter() (*gin.Engine, *API) {
	driver := transcoder.NewDriver(transcoder.Locator{})
	manager := job.NewManager(driver, samplecache.New(0))
	api := NewAPI(manager)

	router := gin.New()
	router.POST("/video-info", api.GetVideoInfo)
	router.POST("/extract-audio", api.ExtractAudio)
	router.POST("/detect-silences", api.DetectSilences)
	router.POST("/process-video", api.ProcessVideo)
	router.POST("/cancel-export", api.CancelExport)
	router.POST("/batch-process", api.BatchProcess)
	router.POST("/audio-statistics", api.AudioStatistics)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router, api
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestGetVideoInfo_MissingPath(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/video-info", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetVideoInfo_NonexistentFile(t *testing.T) {
	router, _ := setupTestRouter()

	body := `{"path": "/nonexistent/does-not-exist.mp4"}`
	req, _ := http.NewRequest("POST", "/video-info", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestExtractAudio_MissingPath(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/extract-audio", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestDetectSilences_MissingRequiredFields(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/detect-silences", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestDetectSilences_UnknownCacheIDNotFound(t *testing.T) {
	router, _ := setupTestRouter()

	body := `{"cache_id": "no-such-id", "sample_rate": 16000, "min_silence_duration": 1.0}`
	req, _ := http.NewRequest("POST", "/detect-silences", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestAudioStatistics_MissingRequiredFields(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/audio-statistics", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestAudioStatistics_UnknownCacheIDNotFound(t *testing.T) {
	router, _ := setupTestRouter()

	body := `{"cache_id": "no-such-id", "sample_rate": 16000}`
	req, _ := http.NewRequest("POST", "/audio-statistics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestProcessVideo_MissingRequiredFields(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/process-video", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestProcessVideo_NonexistentFile(t *testing.T) {
	router, _ := setupTestRouter()

	body := `{"input_path": "/nonexistent/does-not-exist.mp4", "min_silence_duration": 1.0}`
	req, _ := http.NewRequest("POST", "/process-video", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestCancelExport_NoActiveJob(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/cancel-export", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestBatchProcess_MissingRequiredFields(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/batch-process", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestBatchProcess_NonexistentInputFails(t *testing.T) {
	router, _ := setupTestRouter()

	body := `{"input_paths": ["/nonexistent/does-not-exist.mp4"], "output_dir": "/tmp", "min_silence_duration": 1.0}`
	req, _ := http.NewRequest("POST", "/batch-process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}
