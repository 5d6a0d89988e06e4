// Stage-data HTTP handlers.
//
// Endpoints:
//   - GET   /projects/{id}/stage-data   (full bag + phase + version)
//   - PUT   /projects/{id}/stage-data   (replace one stage sub-tree)
//   - PATCH /projects/{id}/stage-data   (apply one path mutation)
//
// The PATCH body addresses a single field inside one stage and carries an
// action (set, push, pull, update_in_array; empty defaults to set). Both
// write endpoints return the full updated bag so clients can re-render
// without a follow-up read.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

// StageDataResponse is the JSON shape returned by all stage-data endpoints.
type StageDataResponse struct {
	// StageData is the full per-phase data bag.
	StageData map[string]any `json:"stageData"`
	// Phase is the project's current phase (GET only).
	Phase domain.Phase `json:"phase,omitempty"`
	// Version is the document version, incremented on every write.
	Version int64 `json:"version"`
}

// ReplaceStageRequest is the JSON payload for PUT /stage-data.
type ReplaceStageRequest struct {
	// Stage names the sub-tree to replace (empathize, define, ideate, prototype, test).
	Stage string `json:"stage" binding:"required" example:"empathize"`
	// Data is the replacement sub-tree; null clears the stage.
	Data map[string]any `json:"data"`
	// ExpectVersion, when set, makes the write conditional on the current version.
	ExpectVersion *int64 `json:"expectVersion,omitempty"`
}

// MutateStageRequest is the JSON payload for PATCH /stage-data.
type MutateStageRequest struct {
	// Stage names the sub-tree being mutated.
	Stage string `json:"stage" binding:"required" example:"empathize"`
	// Field is the target field inside the stage.
	Field string `json:"field" binding:"required" example:"personas"`
	// Action is one of set, push, pull, update_in_array; empty means set.
	Action string `json:"action" example:"push"`
	// Value is the operand; its shape depends on the action.
	Value any `json:"value"`
}

// GetStageData godoc
// @ID          getStageData
// @Summary     Fetch stage data
// @Description Returns the project's full stage-data bag together with the current phase and document version.
// @Tags        StageData
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} handlers.StageDataResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/stage-data [get]
func (h *Handlers) GetStageData(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	bag, phase, version, err := h.stageSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, StageDataResponse{StageData: bag, Phase: phase, Version: version})
}

// ReplaceStageData godoc
// @ID          replaceStageData
// @Summary     Replace one stage sub-tree
// @Description Swaps the named stage's data wholesale. Pass expectVersion to fail with 409 when the document changed since the last read.
// @Tags        StageData
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.ReplaceStageRequest  true  "Replacement payload"
//
// @Success     200  {object} handlers.StageDataResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Failure     409  {object} handlers.ErrorResponse "Version conflict"
// @Router      /projects/{id}/stage-data [put]
func (h *Handlers) ReplaceStageData(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	var req ReplaceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "stage required")
		return
	}
	bag, version, err := h.stageSvc.Replace(c.Request.Context(), userID(c), id, req.Stage, req.Data, req.ExpectVersion)
	if err != nil {
		failService(c, err, ErrCodeSaveFailed)
		return
	}
	ok(c, http.StatusOK, StageDataResponse{StageData: bag, Version: version})
}

// MutateStageData godoc
// @ID          mutateStageData
// @Summary     Apply one stage mutation
// @Description Applies a single path-addressed mutation (set, push, pull, update_in_array) inside one stage and returns the full updated bag.
// @Tags        StageData
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.MutateStageRequest  true  "Mutation payload"
//
// @Success     200  {object} handlers.StageDataResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/stage-data [patch]
func (h *Handlers) MutateStageData(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	var req MutateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "stage and field required")
		return
	}
	bag, version, err := h.stageSvc.Apply(c.Request.Context(), userID(c), id, req.Stage, req.Field, req.Action, req.Value)
	if err != nil {
		failService(c, err, ErrCodeSaveFailed)
		return
	}
	ok(c, http.StatusOK, StageDataResponse{StageData: bag, Version: version})
}
