package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crowdsight/crowdsight-core/internal/analysis"
	"github.com/crowdsight/crowdsight-core/internal/auth"
	"github.com/crowdsight/crowdsight-core/internal/history"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/config"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/logging"
	"github.com/crowdsight/crowdsight-core/internal/live"
	"github.com/crowdsight/crowdsight-core/internal/place"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// testServer creates a Server backed by in-memory SQLite with the full schema.
func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	db := setupTestDB(t)
	places := place.NewSQLiteRepository(db)
	liveRepo := live.NewSQLiteRepository(db)
	histRepo := history.NewSQLiteRepository(db)
	users := auth.NewUserRepository(db)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	uploadDir := t.TempDir()
	engine := analysis.NewEngine(places, liveRepo, histRepo, nil,
		config.AnalysisConfig{MaxWidth: 320, MaxFrames: 8, FrameTimeoutMs: 700},
		uploadDir, log)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Media: config.MediaConfig{
			UploadDir:      uploadDir,
			MaxImageSizeMB: 5,
			MaxVideoSizeMB: 200,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         testJWTSecret,
				AccessTokenTTL: 15,
			},
		},
		Logger:  log,
		DB:      db,
		Places:  places,
		Live:    liveRepo,
		History: histRepo,
		Users:   users,
		Engine:  engine,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests without calling Start()
	srv.hub = NewHub(srv.wsCfg, log)

	return srv, srv.buildRouter()
}

// setupTestDB creates an in-memory SQLite database with the CrowdSight schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE places (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			video_url TEXT NOT NULL DEFAULT '',
			video_analyzed INTEGER NOT NULL DEFAULT 0,
			video_uploaded_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE live_data (
			place_id TEXT PRIMARY KEY REFERENCES places(id) ON DELETE CASCADE,
			place_name TEXT NOT NULL,
			seats TEXT NOT NULL,
			tables TEXT NOT NULL,
			occupancy_percent INTEGER NOT NULL DEFAULT 0,
			last_update TEXT NOT NULL
		);
		CREATE TABLE occupancy_history (
			place_id TEXT PRIMARY KEY,
			place_name TEXT NOT NULL,
			date TEXT NOT NULL,
			hourly TEXT NOT NULL,
			today_stats TEXT NOT NULL
		);
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TEXT NOT NULL
		);
	`
	if _, execErr := db.Exec(schema); execErr != nil {
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	return db
}

// doJSON performs a JSON request against the router and decodes the response.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

// signup registers an account and returns its access token.
func signup(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":    email,
		"name":     "Test User",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %v", rec.Code, body)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("signup returned no access token")
	}
	return token
}

func TestSignupAndLogin(t *testing.T) {
	_, router := testServer(t)

	// First account becomes manager
	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":    "boss@example.com",
		"name":     "Boss",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %v", rec.Code, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["role"] != "manager" {
		t.Errorf("first account role = %v, want manager", user["role"])
	}

	// Second account is a plain user
	rec, body = doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":    "guest@example.com",
		"name":     "Guest",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second signup status = %d", rec.Code)
	}
	user, _ = body["user"].(map[string]any)
	if user["role"] != "user" {
		t.Errorf("second account role = %v, want user", user["role"])
	}

	// Duplicate email conflicts
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":    "boss@example.com",
		"name":     "Imposter",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}

	// Login with the right password
	rec, body = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "boss@example.com",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %v", rec.Code, body)
	}
	if body["access_token"] == "" {
		t.Error("login returned no access token")
	}

	// Wrong password and unknown email give the same response
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "boss@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", rec.Code)
	}
}

func TestAuthMe(t *testing.T) {
	_, router := testServer(t)
	token := signup(t, router, "me@example.com")

	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	if body["email"] != "me@example.com" {
		t.Errorf("email = %v, want me@example.com", body["email"])
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Error("password hash leaked in response")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	_, router := testServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/places"},
		{http.MethodGet, "/api/v1/places/plc-x/live"},
		{http.MethodGet, "/api/v1/places/plc-x/history"},
		{http.MethodGet, "/api/v1/auth/me"},
	}

	for _, p := range paths {
		rec, _ := doJSON(t, router, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	// Garbage token is also rejected
	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/places", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestPlaceCRUDRoles(t *testing.T) {
	_, router := testServer(t)
	manager := signup(t, router, "manager@example.com")
	viewer := signup(t, router, "viewer@example.com")

	// Viewer cannot create
	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/places", viewer, map[string]any{
		"name": "Cafe", "capacity": 40,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer create status = %d, want 403", rec.Code)
	}

	// Manager creates
	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/places", manager, map[string]any{
		"name": "Cafe", "description": "Ground floor", "capacity": 40,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", rec.Code, body)
	}
	placeID, _ := body["id"].(string)
	if placeID == "" {
		t.Fatal("created place has no ID")
	}

	// Invalid capacity rejected
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/places", manager, map[string]any{
		"name": "Bad", "capacity": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero capacity status = %d, want 400", rec.Code)
	}

	// Viewer can list and read
	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/places", viewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if count, _ := body["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}

	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/places/"+placeID, viewer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if body["name"] != "Cafe" {
		t.Errorf("name = %v, want Cafe", body["name"])
	}

	// Manager patches
	rec, body = doJSON(t, router, http.MethodPatch, "/api/v1/places/"+placeID, manager, map[string]any{
		"capacity": 60,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %v", rec.Code, body)
	}
	if got, _ := body["capacity"].(float64); got != 60 {
		t.Errorf("capacity = %v, want 60", body["capacity"])
	}
	if body["name"] != "Cafe" {
		t.Errorf("patch clobbered name: %v", body["name"])
	}

	// Viewer cannot delete
	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/places/"+placeID, viewer, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer delete status = %d, want 403", rec.Code)
	}

	// Manager deletes
	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/places/"+placeID, manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/places/"+placeID, viewer, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestLiveDataDefaultShape(t *testing.T) {
	_, router := testServer(t)
	manager := signup(t, router, "manager@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/places", manager, map[string]any{
		"name": "Lounge", "capacity": 20,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	placeID, _ := body["id"].(string)

	// Never analysed: default shape, not an error
	rec, body = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/places/%s/live", placeID), manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("live status = %d, body %v", rec.Code, body)
	}
	if body["initialized"] != false {
		t.Errorf("initialized = %v, want false", body["initialized"])
	}
	if body["place_name"] != "Lounge" {
		t.Errorf("place_name = %v, want Lounge", body["place_name"])
	}
	if seats, ok := body["seats"].([]any); !ok || len(seats) != 0 {
		t.Errorf("seats = %v, want empty list", body["seats"])
	}
	if pct, _ := body["occupancy_percent"].(float64); pct != 0 {
		t.Errorf("occupancy_percent = %v, want 0", body["occupancy_percent"])
	}

	// Unknown place is a 404
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/places/plc-nope/live", manager, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown place live status = %d, want 404", rec.Code)
	}
}

func TestHistoryDefaultShape(t *testing.T) {
	_, router := testServer(t)
	token := signup(t, router, "user@example.com")

	// No history and no place: default shape with "Unknown"
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/places/plc-ghost/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	if body["place_name"] != "Unknown" {
		t.Errorf("place_name = %v, want Unknown", body["place_name"])
	}
	if hourly, ok := body["hourly_data"].([]any); !ok || len(hourly) != 0 {
		t.Errorf("hourly_data = %v, want empty list", body["hourly_data"])
	}
	if peaks, ok := body["peak_hours"].([]any); !ok || len(peaks) != 0 {
		t.Errorf("peak_hours = %v, want empty list", body["peak_hours"])
	}
	stats, _ := body["today_stats"].(map[string]any)
	if stats["peak_time"] != "N/A" {
		t.Errorf("peak_time = %v, want N/A", stats["peak_time"])
	}
}

func TestRefreshAndAnalyzeBeforeMedia(t *testing.T) {
	_, router := testServer(t)
	manager := signup(t, router, "manager@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/places", manager, map[string]any{
		"name": "Bar", "capacity": 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	placeID, _ := body["id"].(string)

	// Refresh re-broadcasts stored state only; before any analysis it
	// returns the uninitialised shape rather than an error.
	rec, body = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/places/%s/refresh", placeID), manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh without snapshot status = %d, want 200", rec.Code)
	}
	if init, _ := body["initialized"].(bool); init {
		t.Error("initialized = true before any analysis")
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/places/unknown/refresh", manager, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("refresh unknown place status = %d, want 404", rec.Code)
	}

	// No extractor configured and no video uploaded
	rec, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/places/%s/analyze", placeID), manager, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("analyze without video status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, router := testServer(t)

	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	components, _ := body["components"].(map[string]any)
	mqttStatus, _ := components["mqtt"].(map[string]any)
	if mqttStatus["status"] != "disabled" {
		t.Errorf("mqtt status = %v, want disabled", mqttStatus["status"])
	}
}
