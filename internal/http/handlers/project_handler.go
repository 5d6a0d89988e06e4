// Project HTTP handlers.
//
// This file exposes REST endpoints for workshop project resources:
//   - POST   /projects              (create)
//   - GET    /projects              (list, paginated, ETag support)
//   - GET    /projects/{id}         (fetch)
//   - DELETE /projects/{id}         (delete, cascades)
//   - PUT    /projects/{id}/phase   (advance phase)
//   - PUT    /projects/{id}/share   (grant access)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/repo"
	"github.com/designthinkr/go-workshop-backend/internal/services"
	"github.com/designthinkr/go-workshop-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ProjectService defines project lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProjectService interface {
	// Create starts a new project for userID with an optional title.
	Create(ctx context.Context, userID, title string) (*domain.Project, error)
	// Get fetches a project visible to userID.
	Get(ctx context.Context, userID, projectID string) (*domain.Project, error)
	// ListPage returns a page of projects visible to userID and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Project, int64, error)
	// AdvancePhase moves a project one step forward in the phase sequence.
	AdvancePhase(ctx context.Context, userID, projectID string, target domain.Phase) (*domain.Project, error)
	// Share grants targetUser a permission on the project (owner-only).
	Share(ctx context.Context, userID, projectID, targetUser, permission string) (*domain.ProjectShare, error)
	// Delete removes a project and its dependents (owner-only).
	Delete(ctx context.Context, userID, projectID string) error
}

// StageService defines stage-data bag operations.
type StageService interface {
	// Get returns the full bag plus the current phase and document version.
	Get(ctx context.Context, userID, projectID string) (map[string]any, domain.Phase, int64, error)
	// Replace swaps a whole stage sub-tree, with optional optimistic locking.
	Replace(ctx context.Context, userID, projectID, stage string, data map[string]any, expectVersion *int64) (map[string]any, int64, error)
	// Apply runs one path mutation and returns the full updated bag.
	Apply(ctx context.Context, userID, projectID, stage, field, action string, value any) (map[string]any, int64, error)
}

// IdeationService defines whole-record ideation operations.
type IdeationService interface {
	// Get returns the ideation record, default-empty when absent.
	Get(ctx context.Context, userID, projectID string) (*domain.Ideation, error)
	// Upsert replaces the whole record, creating it on first write.
	Upsert(ctx context.Context, userID, projectID string, b domain.Brainstorming, m domain.Matrix, s domain.Specs) (*domain.Ideation, error)
	// GenerateSpecs fills the specs block from the generative service.
	GenerateSpecs(ctx context.Context, userID, projectID string) (*domain.Ideation, error)
}

// MessageService defines coach-conversation operations.
type MessageService interface {
	// Append stores one chat turn.
	Append(ctx context.Context, userID, projectID, sender, text string) (*domain.Message, error)
	// ListPage returns a page of chat turns and the total count.
	ListPage(ctx context.Context, userID, projectID string, page, pageSize int) ([]domain.Message, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for projects, stage data, ideation, and
// messages. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	projectSvc  ProjectService
	stageSvc    StageService
	ideationSvc IdeationService
	msgSvc      MessageService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(projectSvc ProjectService, stageSvc StageService, ideationSvc IdeationService, msgSvc MessageService) *Handlers {
	return &Handlers{
		projectSvc:  projectSvc,
		stageSvc:    stageSvc,
		ideationSvc: ideationSvc,
		msgSvc:      msgSvc,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateProjectRequest is the JSON payload for creating a project.
type CreateProjectRequest struct {
	// Title optionally names the project; a default is used when empty.
	Title string `json:"title" example:"Commuter pain points"`
}

// AdvancePhaseRequest is the JSON payload for moving a project forward.
type AdvancePhaseRequest struct {
	// Phase is the target phase; must be the next one in the sequence.
	Phase string `json:"phase" binding:"required" example:"define"`
}

// ShareProjectRequest is the JSON payload for granting access.
type ShareProjectRequest struct {
	// User is the grantee's identifier.
	User string `json:"user" binding:"required" example:"teammate42"`
	// Permission is "basic" or "owner".
	Permission string `json:"permission" binding:"required" example:"basic"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListProjectsResponse wraps a page of projects and pagination information.
type ListProjectsResponse struct {
	Projects   []domain.Project `json:"projects"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// requireProjectID validates the :id path param as a UUID.
func requireProjectID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateProject godoc
// @ID          createProject
// @Summary     Create a new project
// @Description Creates a workshop project for the current user and returns the project resource.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateProjectRequest  true  "Create project payload"
//
// @Success     201  {object}  domain.Project
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects [post]
func (h *Handlers) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.projectSvc.Create(c.Request.Context(), userID(c), req.Title)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListProjects godoc
// @ID          listProjects
// @Summary     List projects (paginated)
// @Description Returns a page of the user's projects, own and shared. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Projects
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListProjectsResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects [get]
func (h *Handlers) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.projectSvc.(*services.ProjectService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ProjectsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"projects:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.projectSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListProjectsResponse{
		Projects: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetProject godoc
// @ID          getProject
// @Summary     Fetch a project
// @Description Returns one project visible to the current user.
// @Tags        Projects
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} domain.Project
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id} [get]
func (h *Handlers) GetProject(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	p, err := h.projectSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProject godoc
// @ID          deleteProject
// @Summary     Delete a project
// @Description Removes a project plus its messages, shares, and ideation record. Owner-only.
// @Tags        Projects
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id} [delete]
func (h *Handlers) DeleteProject(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	if err := h.projectSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// AdvancePhase godoc
// @ID          advancePhase
// @Summary     Advance the project phase
// @Description Moves the project one step forward in the fixed phase sequence. Requesting the current phase is a no-op.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.AdvancePhaseRequest  true  "Target phase"
//
// @Success     200  {object} domain.Project
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/phase [put]
func (h *Handlers) AdvancePhase(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	var req AdvancePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "phase required")
		return
	}
	p, err := h.projectSvc.AdvancePhase(c.Request.Context(), userID(c), id, domain.Phase(req.Phase))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// ShareProject godoc
// @ID          shareProject
// @Summary     Share a project
// @Description Grants another user access to the project. Owner-only.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.ShareProjectRequest  true  "Grant payload"
//
// @Success     200  {object} domain.ProjectShare
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/share [put]
func (h *Handlers) ShareProject(c *gin.Context) {
	id, okID := requireProjectID(c)
	if !okID {
		return
	}
	var req ShareProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user and permission required")
		return
	}
	share, err := h.projectSvc.Share(c.Request.Context(), userID(c), id, req.User, req.Permission)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, share)
}
