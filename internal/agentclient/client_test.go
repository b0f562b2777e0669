package agentclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/realtime"
)

type fakeAgents map[int64]*device.Agent

func (f fakeAgents) AgentByGarden(_ context.Context, gardenID int64) (*device.Agent, error) {
	a, ok := f[gardenID]
	if !ok {
		return nil, device.ErrAgentNotFound
	}
	return a, nil
}

// newAgentServer returns a server answering /agent/trigger with status and
// body, and a channel receiving each decoded request.
func newAgentServer(t *testing.T, status int, body string) (*httptest.Server, <-chan map[string]any) {
	t.Helper()

	got := make(chan map[string]any, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/agent/trigger" {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		got <- req

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNew_Disabled(t *testing.T) {
	if _, err := New("  ", time.Second, fakeAgents{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("New() error = %v, want ErrDisabled", err)
	}
}

func TestTrigger(t *testing.T) {
	srv, reqs := newAgentServer(t, http.StatusOK, `{"status":"queued"}`)

	agents := fakeAgents{4: {ID: 9, GardenID: 4, Context: "tomatoes in a greenhouse"}}
	c, err := New(srv.URL+"/", time.Second, agents)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Trigger(context.Background(), 4); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	req := <-reqs
	if req["agent_id"] != float64(9) || req["garden_id"] != float64(4) || req["context"] != "tomatoes in a greenhouse" {
		t.Errorf("request = %v", req)
	}
	if _, ok := req["token"]; ok {
		t.Error("request carries a token without an issuer")
	}
}

func TestTrigger_WithToken(t *testing.T) {
	srv, reqs := newAgentServer(t, http.StatusOK, `{}`)

	c, err := New(srv.URL, time.Second, fakeAgents{1: {ID: 2, GardenID: 1}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var issuedFor realtime.Subject
	c.SetTokenIssuer(func(s realtime.Subject) (string, error) {
		issuedFor = s
		return "tok-123", nil
	})

	if err := c.Trigger(context.Background(), 1); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if req := <-reqs; req["token"] != "tok-123" {
		t.Errorf("token = %v, want tok-123", req["token"])
	}
	if issuedFor != realtime.Agent(2) {
		t.Errorf("token issued for %v, want agent:2", issuedFor)
	}
}

func TestTrigger_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", ErrServiceError},
		{"accepted is not ok", http.StatusAccepted, `{}`, ErrServiceError},
		{"not json", http.StatusOK, "queued", ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAgentServer(t, tt.status, tt.body)
			c, err := New(srv.URL, time.Second, fakeAgents{1: {ID: 1, GardenID: 1}})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := c.Trigger(context.Background(), 1); !errors.Is(err, tt.wantErr) {
				t.Errorf("Trigger() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrigger_LargeBodies(t *testing.T) {
	big := strings.Repeat("x", 4*maxResponseBody)

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"error body truncated", http.StatusBadGateway, big, ErrServiceError},
		{"oversized response", http.StatusOK, `{"reply":"` + big + `"}`, ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAgentServer(t, tt.status, tt.body)
			c, err := New(srv.URL, 5*time.Second, fakeAgents{1: {ID: 1, GardenID: 1}})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			err = c.Trigger(context.Background(), 1)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Trigger() error = %v, want %v", err, tt.wantErr)
			}
			if n := len(err.Error()); n > maxErrorBody+128 {
				t.Errorf("error message is %d bytes, want at most %d", n, maxErrorBody+128)
			}
		})
	}
}

func TestTrigger_NoAgent(t *testing.T) {
	c, err := New("http://127.0.0.1:1", time.Second, fakeAgents{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Trigger(context.Background(), 5); !errors.Is(err, device.ErrAgentNotFound) {
		t.Errorf("Trigger() error = %v, want ErrAgentNotFound", err)
	}
}
