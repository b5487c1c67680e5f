package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestLoginAcceptsForm(t *testing.T) {
	env := setupTestEnv(t)

	form := url.Values{"email": {"Admin@Example.com"}, "password": {testAdminPassword}}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := env.do(req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["id_token"] == "" {
		t.Fatalf("expected id_token in response")
	}
	if resp["user"] != "admin" {
		t.Fatalf("expected user admin, got %q", resp["user"])
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"admin@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "id_token") {
		t.Fatalf("expected no token in response, got %s", w.Body.String())
	}
}

func TestLoginMissingFields(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"admin@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "wrong scheme", header: "Basic " + env.token},
		{name: "garbage token", header: "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/drawings/reorder", strings.NewReader(`{"bw":[],"color":[]}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := env.do(req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestErrorMessagesFollowAcceptLanguage(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/drawing/999", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	w := env.do(req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "作品不存在" {
		t.Fatalf("expected chinese message, got %q", resp["error"])
	}
}

// captureLogs 把默认 logger 换成写入缓冲区的 JSON logger
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() {
		slog.SetDefault(previous)
	})
	return &buf
}

func TestAdminActionsRecordActingAdmin(t *testing.T) {
	env := setupTestEnv(t)
	logs := captureLogs(t)

	view := env.upload(t, "a.png", map[string]any{"title": "A", "medium": "ink", "width": 1, "height": 1, "isBw": true})

	req := httptest.NewRequest(http.MethodPost, "/api/drawings/reorder", strings.NewReader(fmt.Sprintf(`{"bw":[%d],"color":[]}`, view.ID)))
	req.Header.Set("Content-Type", "application/json")
	if w := env.do(env.authorized(req)); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	seen := map[string]string{}
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("failed to decode log line %q: %v", line, err)
		}
		msg, _ := entry["msg"].(string)
		admin, _ := entry["admin"].(string)
		seen[msg] = admin
	}
	for _, msg := range []string{"drawing uploaded", "gallery order saved"} {
		if seen[msg] != testAdminEmail {
			t.Fatalf("expected %q to record admin %q, got %v", msg, testAdminEmail, seen)
		}
	}
}

func TestAdminEmailEmptyWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := AdminEmail(c); got != "" {
		t.Fatalf("expected empty admin email, got %q", got)
	}
}
