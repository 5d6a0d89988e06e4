package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPostMessage_AppendsAndAutoTitles(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "") // placeholder title

	w := doJSON(t, r, http.MethodPost, "/projects/"+p.ID+"/messages", "alice", gin.H{
		"sender": "user",
		"text":   "help with the commuter parking problem",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp PostMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message == nil || resp.Message.Sender != "user" {
		t.Fatalf("message=%+v", resp.Message)
	}

	// first user message renames the placeholder project
	w = doJSON(t, r, http.MethodGet, "/projects/"+p.ID, "alice", nil, nil)
	body := w.Body.String()
	if w.Code != http.StatusOK || body == "" {
		t.Fatalf("get status=%d", w.Code)
	}
	if !jsonContains(t, w.Body.Bytes(), "title", "Commuter") {
		t.Fatalf("expected auto-title, got %s", body)
	}
}

func TestPostMessage_ValidationErrors(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "chat rules")

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing text", gin.H{"sender": "user"}},
		{"whitespace text", gin.H{"sender": "user", "text": "   \n\n  "}},
		{"bad sender", gin.H{"sender": "robot", "text": "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/projects/"+p.ID+"/messages", "alice", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPostMessage_IdempotencyReplay(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "retries")

	hdr := map[string]string{"Idempotency-Key": "11111111-2222-3333-4444-555555555555"}

	w := doJSON(t, r, http.MethodPost, "/projects/"+p.ID+"/messages", "alice",
		gin.H{"sender": "user", "text": "first send"}, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("first status=%d body=%s", w.Code, w.Body.String())
	}

	// retry with the same key is replayed, not appended
	w = doJSON(t, r, http.MethodPost, "/projects/"+p.ID+"/messages", "alice",
		gin.H{"sender": "user", "text": "first send"}, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("replay status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}

	w = doJSON(t, r, http.MethodGet, "/projects/"+p.ID+"/messages", "alice", nil, nil)
	var list ListMessagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Pagination.Total != 1 {
		t.Fatalf("total=%d, duplicate append", list.Pagination.Total)
	}
}

func TestListMessages_OrderPaginationAndETag(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "long chat")

	texts := []string{"one", "two", "three"}
	for _, txt := range texts {
		w := doJSON(t, r, http.MethodPost, "/projects/"+p.ID+"/messages", "alice",
			gin.H{"sender": "user", "text": txt}, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("append %q status=%d", txt, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/projects/"+p.ID+"/messages?page=1&page_size=2", "alice", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag")
	}
	var list ListMessagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Messages) != 2 || list.Messages[0].Text != "one" || list.Messages[1].Text != "two" {
		t.Fatalf("page1=%+v", list.Messages)
	}
	if list.Pagination.Total != 3 || !list.Pagination.HasNext {
		t.Fatalf("pagination=%+v", list.Pagination)
	}

	w = doJSON(t, r, http.MethodGet, "/projects/"+p.ID+"/messages?page=1&page_size=2", "alice", nil,
		map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("revalidate status=%d", w.Code)
	}
}

// jsonContains decodes body as an object and reports whether field contains
// substr (case-sensitive).
func jsonContains(t *testing.T, body []byte, field, substr string) bool {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, _ := m[field].(string)
	return strings.Contains(s, substr)
}
