package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/auth"
	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/logging"
	"script-analysis-backend/internal/middleware"
	"script-analysis-backend/internal/models"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "api.db"))
	store, err := database.Open("sqlite", dsn, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureAll())
	return store
}

func testConfig() *config.Config {
	return &config.Config{
		FrontendURL:        "http://localhost:5173",
		JWTSecret:          "handler-test-secret",
		JWTExpirationHours: 24,
		MaxFileSizeMB:      50,
	}
}

// newAnalyzerClient spins up a stub analysis service and returns a client
// pointed at it.
func newAnalyzerClient(t *testing.T, handler http.Handler) *analyzer.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return analyzer.NewClient(server.URL, 5*time.Second)
}

// analyzerStub answers the three analysis-service endpoints with canned
// success payloads.
func analyzerStub() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		writeStubJSON(w, http.StatusOK, map[string]interface{}{
			"comprehensive_analysis": analysisPayload(),
			"api_calls_used":         2,
			"total_processing_time":  12.5,
		})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		writeStubJSON(w, http.StatusOK, map[string]interface{}{
			"response": "Group your day exteriors together to cut company moves.",
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStubJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})
	return mux
}

// failingAnalyzerStub reports the given error detail from /analyze and /chat.
func failingAnalyzerStub(status int, detail string) http.Handler {
	mux := http.NewServeMux()
	fail := func(w http.ResponseWriter, r *http.Request) {
		writeStubJSON(w, status, map[string]interface{}{"detail": detail})
	}
	mux.HandleFunc("/analyze", fail)
	mux.HandleFunc("/chat", fail)
	mux.HandleFunc("/health", fail)
	return mux
}

func writeStubJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// analysisPayload is a small but fully-shaped comprehensive analysis: two
// scenes, three characters, one location, a medium budget.
func analysisPayload() map[string]interface{} {
	return map[string]interface{}{
		"script_data": map[string]interface{}{
			"scenes": []interface{}{
				map[string]interface{}{"number": 1, "heading": "EXT. HARBOR - DAY"},
				map[string]interface{}{"number": 2, "heading": "INT. WAREHOUSE - NIGHT"},
			},
			"total_characters": []interface{}{"MARA", "JONAS", "THE BROKER"},
			"total_locations":  []interface{}{"HARBOR"},
		},
		"cast_breakdown": map[string]interface{}{
			"main_characters": []interface{}{"MARA", "JONAS"},
		},
		"cost_breakdown": map[string]interface{}{
			"total_costs":     250000.0,
			"budget_category": "Medium",
		},
		"location_breakdown": map[string]interface{}{
			"locations": []interface{}{"HARBOR", "WAREHOUSE"},
		},
		"props_breakdown": map[string]interface{}{
			"props": []interface{}{"Cargo manifest", "Flashlight"},
		},
	}
}

// injectUser stands in for the token middleware, placing a fixed identity in
// the request context.
func injectUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID.String())
		c.Set(middleware.UserEmailKey, "crew@example.com")
		c.Next()
	}
}

func seedUser(t *testing.T, store *database.Store, email, username, password string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := store.CreateUser(database.CreateUserParams{
		Email:          email,
		Username:       username,
		HashedPassword: &hash,
	})
	require.NoError(t, err)
	return user
}

func seedScript(t *testing.T, store *database.Store, filename string, projectID uuid.NullUUID) *models.AnalyzedScript {
	t.Helper()

	script, err := store.CreateScript(database.CreateScriptParams{
		Filename:         filename,
		OriginalFilename: filename,
		FileSizeBytes:    2048,
		RawPayload:       analysisPayload(),
		APICallsUsed:     2,
		ProjectID:        projectID,
	})
	require.NoError(t, err)
	return script
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// multipartUpload builds a multipart body with the given form fields plus one
// file part named "file".
func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func doMultipart(t *testing.T, router *gin.Engine, path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, fields, filename, content)
	req, err := http.NewRequest(http.MethodPost, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
