package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func decodeStage(t *testing.T, body []byte) StageDataResponse {
	t.Helper()
	var resp StageDataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode stage response: %v", err)
	}
	return resp
}

func TestStageData_MutateThenGetRoundtrip(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "stage flow")

	// push a persona into the empathize stage
	w := doJSON(t, r, http.MethodPatch, "/projects/"+p.ID+"/stage-data", "alice", gin.H{
		"stage":  "empathize",
		"field":  "personas",
		"action": "push",
		"value":  gin.H{"id": "per-1", "name": "Commuter Carl"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", w.Code, w.Body.String())
	}
	resp := decodeStage(t, w.Body.Bytes())
	if resp.Version != 1 {
		t.Fatalf("version=%d", resp.Version)
	}

	w = doJSON(t, r, http.MethodGet, "/projects/"+p.ID+"/stage-data", "alice", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	resp = decodeStage(t, w.Body.Bytes())
	emp, _ := resp.StageData["empathize"].(map[string]any)
	personas, _ := emp["personas"].([]any)
	if len(personas) != 1 {
		t.Fatalf("personas=%v", emp["personas"])
	}
	if resp.Phase != "empathize" {
		t.Fatalf("phase=%q", resp.Phase)
	}
}

func TestStageData_EmptyActionDefaultsToSet(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "defaults")

	w := doJSON(t, r, http.MethodPatch, "/projects/"+p.ID+"/stage-data", "alice", gin.H{
		"stage": "define",
		"field": "povStatements.primary",
		"value": "Commuters need faster parking",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	resp := decodeStage(t, w.Body.Bytes())
	def, _ := resp.StageData["define"].(map[string]any)
	pov, _ := def["povStatements"].(map[string]any)
	if pov["primary"] != "Commuters need faster parking" {
		t.Fatalf("povStatements=%v", def["povStatements"])
	}
}

func TestStageData_UnknownFieldIs400(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "strict fields")

	w := doJSON(t, r, http.MethodPatch, "/projects/"+p.ID+"/stage-data", "alice", gin.H{
		"stage": "empathize",
		"field": "nonsense",
		"value": 1,
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestStageData_ReplaceWithStaleVersionIs409(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "conflicts")

	// first write bumps the version to 1
	w := doJSON(t, r, http.MethodPut, "/projects/"+p.ID+"/stage-data", "alice", gin.H{
		"stage": "empathize",
		"data":  gin.H{"personas": []any{}},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", w.Code, w.Body.String())
	}

	// a writer holding version 0 must now lose
	stale := int64(0)
	w = doJSON(t, r, http.MethodPut, "/projects/"+p.ID+"/stage-data", "alice", gin.H{
		"stage":         "empathize",
		"data":          gin.H{"personas": []any{gin.H{"id": "x"}}},
		"expectVersion": stale,
	}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale put status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestStageData_ChecklistHealsOnRead(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "checklist")

	// a persona exists but the checklist flag was never set
	w := doJSON(t, r, http.MethodPatch, "/projects/"+p.ID+"/stage-data", "alice", gin.H{
		"stage":  "empathize",
		"field":  "personas",
		"action": "push",
		"value":  gin.H{"id": "per-1"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status=%d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/projects/"+p.ID+"/stage-data", "alice", nil, nil)
	resp := decodeStage(t, w.Body.Bytes())
	emp, _ := resp.StageData["empathize"].(map[string]any)
	checklist, _ := emp["checklist"].(map[string]any)
	if checklist["createdPersona"] != true {
		t.Fatalf("checklist=%v", emp["checklist"])
	}
}

func TestStageData_ForeignUserIs404(t *testing.T) {
	r, _ := newRig(t)
	p := createProjectVia(t, r, "alice", "private")

	w := doJSON(t, r, http.MethodGet, "/projects/"+p.ID+"/stage-data", "mallory", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
