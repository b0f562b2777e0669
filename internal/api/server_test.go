package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/gardencore/internal/audit"
	"github.com/nerrad567/gardencore/internal/auth"
	"github.com/nerrad567/gardencore/internal/automation"
	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/infrastructure/config"
	"github.com/nerrad567/gardencore/internal/infrastructure/database"
	"github.com/nerrad567/gardencore/internal/infrastructure/logging"
	"github.com/nerrad567/gardencore/internal/realtime"
	"github.com/nerrad567/gardencore/migrations"
)

const testSecret = "test-secret-with-enough-length-32b"

// testEnv is one owner with a garden, its agent and a board carrying a
// waterer, plus a stranger. spare is a board the owner bound but has not
// placed in a garden.
type testEnv struct {
	srv      *Server
	hub      *realtime.Hub
	sched    *automation.Scheduler
	pub      *recordingPublisher
	garden   device.Garden
	owner    device.User
	stranger device.User
	agent    device.Agent
	esp      device.ESP
	spare    device.ESP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(ctx, migrations.FS, "."); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	store := device.NewSQLiteStore(db.DB)

	env := &testEnv{}
	env.owner = device.User{UserKey: "owner", Email: "owner@example.com"}
	if err := store.CreateUser(ctx, &env.owner); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	env.stranger = device.User{UserKey: "stranger", Email: "stranger@example.com"}
	if err := store.CreateUser(ctx, &env.stranger); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	env.garden = device.Garden{UserID: &env.owner.ID, Name: "Balcony"}
	if err := store.CreateGarden(ctx, &env.garden); err != nil {
		t.Fatalf("CreateGarden() error = %v", err)
	}
	env.agent = device.Agent{GardenID: env.garden.ID, Context: "tomatoes"}
	if err := store.CreateAgent(ctx, &env.agent); err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}

	env.esp = device.ESP{MAC: "AA:BB:CC:DD:EE:01", GardenID: &env.garden.ID, UserID: &env.owner.ID}
	if err := store.CreateESP(ctx, &env.esp); err != nil {
		t.Fatalf("CreateESP() error = %v", err)
	}
	if err := store.CreateDevice(ctx, &device.Device{ESPID: env.esp.ID, Kind: device.KindWaterer}); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	env.spare = device.ESP{MAC: "AA:BB:CC:DD:EE:02", UserID: &env.owner.ID}
	if err := store.CreateESP(ctx, &env.spare); err != nil {
		t.Fatalf("CreateESP() error = %v", err)
	}
	env.pub = &recordingPublisher{}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	env.sched = automation.NewScheduler(automation.NewRedisStore(rdb, "redbeat:"))

	verifier, err := auth.NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	env.hub = realtime.NewHub(verifier)
	t.Cleanup(env.hub.Close)

	env.srv, err = New(Deps{
		WS:        config.WebSocketConfig{Path: "/wsinit", MaxMessageSize: 4096},
		Logger:    logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test"),
		Hub:       env.hub,
		Auth:      verifier,
		Gardens:   store,
		Schedules: automation.NewService(env.sched),
		Boards:    store,
		Commands:  device.NewCommander(env.pub, store, 1),
		Audit:     audit.NewSQLiteRecorder(db.DB),
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return env
}

func token(t *testing.T, subject realtime.Subject) string {
	t.Helper()
	tok, err := auth.GenerateToken(subject, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

// do runs one request through the full router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, subject *realtime.Subject, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if subject != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *subject))
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) schedulesPath() string {
	return "/api/v1/gardens/" + itoa(e.garden.ID) + "/schedules"
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["schedules"] != true || body["ws_endpoint"] != "/wsinit" {
		t.Errorf("health = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, env.schedulesPath(), nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, env.schedulesPath(), nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestGardenAccess(t *testing.T) {
	env := newTestEnv(t)
	stranger := realtime.User(env.stranger.ID)
	otherAgent := realtime.Agent(env.agent.ID + 100)
	owner := realtime.User(env.owner.ID)
	agent := realtime.Agent(env.agent.ID)

	tests := []struct {
		name    string
		subject realtime.Subject
		want    int
	}{
		{"owner", owner, http.StatusOK},
		{"garden agent", agent, http.StatusOK},
		{"other user", stranger, http.StatusForbidden},
		{"other agent", otherAgent, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, env.schedulesPath(), &tt.subject, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/gardens/999/schedules", &owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown garden: status = %d, want 404", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/gardens/abc/schedules", &owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad garden id: status = %d, want 400", rec.Code)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner := realtime.User(env.owner.ID)

	rec := env.do(t, http.MethodPost, env.schedulesPath(), &owner,
		createScheduleRequest{Action: "WATER_ON", Cron: "0 7 * * *"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	id := decode[jobIDResponse](t, rec).TaskID
	if !strings.HasPrefix(id, "garden_"+itoa(env.garden.ID)+"_") {
		t.Errorf("task_id = %q, want garden prefix", id)
	}

	rec = env.do(t, http.MethodPost, env.schedulesPath()+"/weekly", &owner,
		weeklyScheduleRequest{DaysOfWeek: []string{"mon", "fri"}, Hour: 6, Minute: 30, Action: "FAN_ON"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create weekly: status = %d (%s)", rec.Code, rec.Body.String())
	}
	weeklyID := decode[jobIDResponse](t, rec).TaskID

	rec = env.do(t, http.MethodGet, env.schedulesPath(), &owner, nil)
	jobs := decode[[]automation.Job](t, rec)
	if len(jobs) != 2 {
		t.Fatalf("list = %d jobs, want 2", len(jobs))
	}

	weekly, err := env.sched.Get(context.Background(), weeklyID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := weekly.Cron.String(); got != "30 6 * * 1,5" {
		t.Errorf("weekly cron = %q, want %q", got, "30 6 * * 1,5")
	}

	rec = env.do(t, http.MethodPut, "/api/v1/schedules/"+id, &owner, updateScheduleRequest{Cron: "15 8 * * *"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update: status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/toggle", &owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status = %d (%s)", rec.Code, rec.Body.String())
	}
	if body := decode[map[string]any](t, rec); body["enabled"] != false {
		t.Errorf("toggle enabled = %v, want false", body["enabled"])
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/schedules/"+id, &owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d (%s)", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodDelete, "/api/v1/schedules/"+id, &owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestScheduleValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := realtime.User(env.owner.ID)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"bad cron", env.schedulesPath(), createScheduleRequest{Action: "WATER_ON", Cron: "61 * * * *"}, http.StatusUnprocessableEntity},
		{"short cron", env.schedulesPath(), createScheduleRequest{Action: "WATER_ON", Cron: "* * *"}, http.StatusUnprocessableEntity},
		{"unknown action", env.schedulesPath(), createScheduleRequest{Action: "DANCE", Cron: "0 7 * * *"}, http.StatusUnprocessableEntity},
		{"bad weekday", env.schedulesPath() + "/weekly", weeklyScheduleRequest{DaysOfWeek: []string{"funday"}, Action: "FAN_ON"}, http.StatusUnprocessableEntity},
		{"bad hour", env.schedulesPath() + "/weekly", weeklyScheduleRequest{DaysOfWeek: []string{"mon"}, Hour: 24, Action: "FAN_ON"}, http.StatusUnprocessableEntity},
		{"not json", env.schedulesPath(), "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, &owner, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := env.do(t, http.MethodPut, "/api/v1/schedules/not-a-job", &owner, updateScheduleRequest{Cron: "0 7 * * *"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed job id: status = %d, want 422", rec.Code)
	}
}

func TestMutationPolicy(t *testing.T) {
	env := newTestEnv(t)
	owner := realtime.User(env.owner.ID)
	agent := realtime.Agent(env.agent.ID)

	rec := env.do(t, http.MethodPost, env.schedulesPath(), &owner,
		createScheduleRequest{Action: "WATER_ON", Cron: "0 7 * * *"})
	userJob := decode[jobIDResponse](t, rec).TaskID

	rec = env.do(t, http.MethodPost, env.schedulesPath(), &agent,
		createScheduleRequest{Action: "WATER_OFF", Cron: "0 8 * * *"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("agent create: status = %d (%s)", rec.Code, rec.Body.String())
	}
	aiJob := decode[jobIDResponse](t, rec).TaskID

	tests := []struct {
		name    string
		subject realtime.Subject
		method  string
		path    string
		want    int
	}{
		{"agent toggles user job", agent, http.MethodPost, "/api/v1/schedules/" + userJob + "/toggle", http.StatusForbidden},
		{"agent deletes user job", agent, http.MethodDelete, "/api/v1/schedules/" + userJob, http.StatusForbidden},
		{"user toggles AI job", owner, http.MethodPost, "/api/v1/schedules/" + aiJob + "/toggle", http.StatusForbidden},
		{"user deletes AI job", owner, http.MethodDelete, "/api/v1/schedules/" + aiJob, http.StatusForbidden},
		{"agent toggles AI job", agent, http.MethodPost, "/api/v1/schedules/" + aiJob + "/toggle", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, &tt.subject, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	job, err := env.sched.Get(context.Background(), userJob)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !job.Enabled {
		t.Error("denied toggle changed the user job")
	}

	rec = env.do(t, http.MethodDelete, env.schedulesPath()+"/ai", &agent, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent clear AI: status = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, env.schedulesPath()+"/ai", &owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner clear AI: status = %d (%s)", rec.Code, rec.Body.String())
	}
	if _, err := env.sched.Get(context.Background(), aiJob); !errors.Is(err, automation.ErrJobNotFound) {
		t.Errorf("AI job after clear: error = %v, want ErrJobNotFound", err)
	}
}

func TestAgentHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	owner := realtime.User(env.owner.ID)
	agent := realtime.Agent(env.agent.ID)
	base := "/api/v1/gardens/" + itoa(env.garden.ID) + "/agent/schedule"

	rec := env.do(t, http.MethodPut, base+"/enabled", &owner, map[string]bool{"enabled": false})
	if rec.Code != http.StatusNotFound {
		t.Errorf("enable without heartbeat: status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base, &agent, heartbeatRequest{Interval: 30})
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent heartbeat: status = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodPost, base, &owner, heartbeatRequest{Interval: 0})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero interval: status = %d, want 422", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base, &owner, heartbeatRequest{Interval: 30})
	if rec.Code != http.StatusCreated {
		t.Fatalf("heartbeat: status = %d (%s)", rec.Code, rec.Body.String())
	}
	id := decode[jobIDResponse](t, rec).TaskID
	if !automation.IsAgentJobID(id) {
		t.Errorf("heartbeat id = %q, want agent job id", id)
	}

	rec = env.do(t, http.MethodPut, base+"/enabled", &owner, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing enabled: status = %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodPut, base+"/enabled", &owner, map[string]bool{"enabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("disable heartbeat: status = %d (%s)", rec.Code, rec.Body.String())
	}
	job, err := env.sched.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.Enabled {
		t.Error("heartbeat still enabled")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/toggle", &owner, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("toggle heartbeat directly: status = %d, want 403", rec.Code)
	}
}

func TestScheduleHistory(t *testing.T) {
	env := newTestEnv(t)
	owner := realtime.User(env.owner.ID)
	agent := realtime.Agent(env.agent.ID)

	rec := env.do(t, http.MethodPost, env.schedulesPath(), &owner,
		createScheduleRequest{Action: "WATER_ON", Cron: "0 7 * * *"})
	id := decode[jobIDResponse](t, rec).TaskID

	env.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/toggle", &agent, nil)
	env.do(t, http.MethodPut, "/api/v1/schedules/"+id, &owner, updateScheduleRequest{Cron: "bad"})
	env.do(t, http.MethodPost, "/api/v1/schedules/"+id+"/toggle", &owner, nil)

	rec = env.do(t, http.MethodGet, env.schedulesPath()+"/history", &owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d (%s)", rec.Code, rec.Body.String())
	}
	page := decode[audit.Page](t, rec)
	if page.Total != 3 {
		t.Fatalf("history total = %d, want 3 (validation failures are not recorded)", page.Total)
	}

	var denied int
	for _, e := range page.Entries {
		if e.JobID != id {
			t.Errorf("entry job = %q, want %q", e.JobID, id)
		}
		if e.Outcome == audit.OutcomeDenied {
			denied++
			if e.SubjectKind != "agent" || e.Action != "toggle" {
				t.Errorf("denied entry = %+v, want agent toggle", e)
			}
		}
	}
	if denied != 1 {
		t.Errorf("denied entries = %d, want 1", denied)
	}

	rec = env.do(t, http.MethodGet, env.schedulesPath()+"/history?action=create", &owner, nil)
	if page := decode[audit.Page](t, rec); page.Total != 1 {
		t.Errorf("create history total = %d, want 1", page.Total)
	}

	rec = env.do(t, http.MethodGet, env.schedulesPath()+"/history", &agent, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent history: status = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodGet, env.schedulesPath()+"/history?limit=x", &owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", rec.Code)
	}
}

func TestSchedulesUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.srv.schedules = nil
	owner := realtime.User(env.owner.ID)

	rec := env.do(t, http.MethodGet, env.schedulesPath(), &owner, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	env.srv.cfg.CORS.AllowedOrigins = []string{"https://app.example.com"}

	req := httptest.NewRequest(http.MethodOptions, env.schedulesPath(), nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, env.schedulesPath(), nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for disallowed origin = %q, want empty", got)
	}
}

func wsURL(srv *httptest.Server, credential string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wsinit"
	if credential != "" {
		u += "?authorization=" + strings.ReplaceAll(credential, " ", "%20")
	}
	return u
}

func TestWebSocket_Push(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.srv.Handler())
	defer srv.Close()

	owner := realtime.User(env.owner.ID)
	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "Bearer "+token(t, owner)), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ConnectionCount(owner) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := env.hub.SendToUser(context.Background(), env.owner.ID, map[string]string{"type": "alert"}); err != nil {
		t.Fatalf("SendToUser() error = %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), `"alert"`) {
		t.Errorf("message = %s, want alert payload", msg)
	}

	client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	deadline = time.Now().Add(2 * time.Second)
	for env.hub.ConnectionCount(owner) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection not removed after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_Rejected(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.srv.Handler())
	defer srv.Close()

	for _, credential := range []string{"", "Bearer garbage", "Basic abc"} {
		t.Run(credential, func(t *testing.T) {
			client, _, err := websocket.DefaultDialer.Dial(wsURL(srv, credential), nil)
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer client.Close()

			client.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err = client.ReadMessage()
			if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				t.Errorf("ReadMessage() error = %v, want close 1008", err)
			}
		})
	}
	if n := env.hub.SubjectCount(); n != 0 {
		t.Errorf("SubjectCount() = %d, want 0", n)
	}
}
