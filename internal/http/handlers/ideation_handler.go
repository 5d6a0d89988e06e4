// Ideation HTTP handlers.
//
// Endpoints:
//   - GET  /projects/{id}/ideation                 (fetch, default-empty)
//   - PUT  /projects/{id}/ideation                 (whole-record upsert)
//   - POST /projects/{id}/ideation/specs/generate  (generate the tech spec)
//
// The ideation API speaks the view shape (reconcile package): notes carry
// "text" and a nested "position", the architecture block says "database".
// The matrix arrives untyped so legacy client payloads can still be read.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/reconcile"
)

// UpsertIdeationRequest is the JSON payload for PUT /ideation.
//
// Matrix is accepted untyped and coerced: current bucket shapes pass through,
// legacy object-of-arrays shapes flatten into the unassigned list, anything
// else is treated as an empty matrix.
type UpsertIdeationRequest struct {
	Ideas          []reconcile.UINote `json:"ideas"`
	Matrix         any                `json:"matrix"`
	WinningConcept *domain.IdeaRef    `json:"winningConcept,omitempty"`
	TechSpec       reconcile.UISpecs  `json:"techSpec"`
	IsFinished     bool               `json:"isFinished"`
}

// GetIdeation godoc
// @ID          getIdeation
// @Summary     Fetch the ideation snapshot
// @Description Returns the project's ideation record in view shape. Projects without one yet get a default-empty snapshot.
// @Tags        Ideation
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} reconcile.UIState
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/ideation [get]
func (h *Handlers) GetIdeation(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	rec, err := h.ideationSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, reconcile.ToUI(rec))
}

// UpsertIdeation godoc
// @ID          upsertIdeation
// @Summary     Save the ideation snapshot
// @Description Replaces the whole ideation record, creating it on first write. Ideas echoed in several matrix buckets are deduplicated server-side.
// @Tags        Ideation
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.UpsertIdeationRequest  true  "Snapshot payload"
//
// @Success     200  {object} reconcile.UIState
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/ideation [put]
func (h *Handlers) UpsertIdeation(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	var req UpsertIdeationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	state := reconcile.UIState{
		Ideas:          req.Ideas,
		Matrix:         reconcile.CoerceMatrix(req.Matrix),
		WinningConcept: req.WinningConcept,
		TechSpec:       req.TechSpec,
		IsFinished:     req.IsFinished,
	}
	b, m, s := reconcile.FromUI(state)

	rec, err := h.ideationSvc.Upsert(c.Request.Context(), userID(c), id, b, m, s)
	if err != nil {
		failService(c, err, ErrCodeSaveFailed)
		return
	}
	ok(c, http.StatusOK, reconcile.ToUI(rec))
}

// GenerateSpecs godoc
// @ID          generateSpecs
// @Summary     Generate the technical spec
// @Description Produces requirements and an architecture sketch for the winning idea via the generative-text service and persists them. Upstream failures degrade to an empty spec instead of an error.
// @Tags        Ideation
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} reconcile.UIState
// @Failure     400  {object} handlers.ErrorResponse "No winning idea selected"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/ideation/specs/generate [post]
func (h *Handlers) GenerateSpecs(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	rec, err := h.ideationSvc.GenerateSpecs(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeGenerateFailed)
		return
	}
	ok(c, http.StatusOK, reconcile.ToUI(rec))
}
