package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID.String(), req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, project)
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, project)
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	limit, offset := common.ParseLimitOffset(c, 20, 100)

	projects, err := h.projects.List(c.Request.Context(),
		c.Query("status"), c.Query("client_id"), int64(limit), int64(offset))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, projects)
}

// Update PATCH /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	project, err := h.projects.Update(c.Request.Context(), userID.String(), c.Param("id"), req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, project)
}
