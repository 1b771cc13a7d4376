// Package e2e drives a running coliving API through Gherkin scenarios.
//
// The server must be started with COLIVING_BOOTSTRAP_ADMIN_EMAIL and
// COLIVING_BOOTSTRAP_ADMIN_PASSWORD matching E2E_ADMIN_EMAIL and
// E2E_ADMIN_PASSWORD, and with the default login lockout limits.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestContext holds the HTTP client and per-scenario state shared by the step
// packages. Actors are named in the feature files; each name maps to one
// account and its bearer token.
type TestContext struct {
	baseURL       string
	adminEmail    string
	adminPassword string
	client        *http.Client

	suffix  string
	tokens  map[string]string
	userIDs map[string]string
	saved   map[string]string

	status int
	body   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:       envOr("E2E_BASE_URL", "http://localhost:8080"),
		adminEmail:    envOr("E2E_ADMIN_EMAIL", "admin@coliving.local"),
		adminPassword: envOr("E2E_ADMIN_PASSWORD", "change-me-please"),
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state. Emails get a fresh suffix so scenarios never
// collide on registration.
func (tc *TestContext) Reset() {
	tc.suffix = uuid.NewString()[:8]
	tc.tokens = map[string]string{}
	tc.userIDs = map[string]string{}
	tc.saved = map[string]string{}
	tc.status = 0
	tc.body = nil
}

func (tc *TestContext) AdminCredentials() (string, string) {
	return tc.adminEmail, tc.adminPassword
}

func (tc *TestContext) Email(actor string) string {
	return fmt.Sprintf("%s-%s@e2e.example.com", actor, tc.suffix)
}

func (tc *TestContext) SetToken(actor, token string) { tc.tokens[actor] = token }

func (tc *TestContext) SetUserID(actor, userID string) { tc.userIDs[actor] = userID }

func (tc *TestContext) UserID(actor string) (string, error) {
	v, ok := tc.userIDs[actor]
	if !ok {
		return "", fmt.Errorf("unknown actor %q", actor)
	}
	return v, nil
}

func (tc *TestContext) Save(label, value string) { tc.saved[label] = value }

func (tc *TestContext) Saved(label string) (string, error) {
	v, ok := tc.saved[label]
	if !ok {
		return "", fmt.Errorf("nothing saved as %q", label)
	}
	return v, nil
}

// Do sends a request as actor. An empty actor sends no Authorization header.
func (tc *TestContext) Do(method, path, actor string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		token, ok := tc.tokens[actor]
		if !ok {
			return fmt.Errorf("actor %q is not logged in", actor)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.status = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) Status() int { return tc.status }

// ResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var doc map[string]any
	if err := json.Unmarshal(tc.body, &doc); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", strings.TrimSpace(string(tc.body)))
	}
	v, ok := doc[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, strings.TrimSpace(string(tc.body)))
	}
	return v, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
