// Package agentclient wakes a garden's autonomous agent over HTTP.
//
// Heartbeat jobs fire Client.Trigger, which resolves the garden's agent and
// POSTs {"agent_id", "garden_id", "context"} to <base>/agent/trigger. When a
// token issuer is set, the request also carries a short-lived access token
// for the agent subject so the agent can call back into the core.
package agentclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/realtime"
)

const (
	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is read and kept
	// in the error.
	maxErrorBody = 512

	// maxResponseBody bounds a successful trigger response.
	maxResponseBody = 1 << 20
)

// AgentLookup resolves a garden's agent. device.Store implements it.
type AgentLookup interface {
	AgentByGarden(ctx context.Context, gardenID int64) (*device.Agent, error)
}

// TokenIssuer mints an access token for a subject.
type TokenIssuer func(subject realtime.Subject) (string, error)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// triggerRequest is the body of POST /agent/trigger.
type triggerRequest struct {
	AgentID  int64  `json:"agent_id"`
	GardenID int64  `json:"garden_id"`
	Context  string `json:"context"`
	Token    string `json:"token,omitempty"`
}

// Client calls the agent service.
//
// Thread Safety: safe for concurrent use once configured.
type Client struct {
	url        string
	httpClient *http.Client
	agents     AgentLookup
	issue      TokenIssuer
	logger     Logger
}

// New creates a client for the service at baseURL.
//
// Parameters:
//   - baseURL: Service root, such as http://agent:9000
//   - timeout: Per-request timeout (zero uses 30s)
//   - agents: Resolves a garden to its agent
//
// Returns:
//   - *Client: Ready for use
//   - error: ErrDisabled if baseURL is empty
func New(baseURL string, timeout time.Duration, agents AgentLookup) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrDisabled
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		agents:     agents,
		logger:     noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// SetTokenIssuer makes every trigger carry an access token for the agent.
func (c *Client) SetTokenIssuer(issue TokenIssuer) {
	c.issue = issue
}

// Trigger wakes the agent attached to gardenID.
// Returns device.ErrAgentNotFound if the garden has none.
func (c *Client) Trigger(ctx context.Context, gardenID int64) error {
	agent, err := c.agents.AgentByGarden(ctx, gardenID)
	if err != nil {
		return err
	}
	_, err = c.TriggerAgent(ctx, agent)
	return err
}

// TriggerAgent POSTs the trigger request for agent and returns the decoded
// JSON response.
func (c *Client) TriggerAgent(ctx context.Context, agent *device.Agent) (map[string]any, error) {
	body := triggerRequest{
		AgentID:  agent.ID,
		GardenID: agent.GardenID,
		Context:  agent.Context,
	}
	if c.issue != nil {
		token, err := c.issue(realtime.Agent(agent.ID))
		if err != nil {
			return nil, fmt.Errorf("issuing agent token: %w", err)
		}
		body.Token = token
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding trigger: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/agent/trigger", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("agent trigger: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent trigger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrServiceError, resp.StatusCode, text)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("agent trigger: reading response: %w", err)
	}
	if len(respBody) > maxResponseBody {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidResponse, maxResponseBody)
	}

	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	c.logger.Debug("agent triggered", "agent_id", agent.ID, "garden_id", agent.GardenID)
	return out, nil
}
