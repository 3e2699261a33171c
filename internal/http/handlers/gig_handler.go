package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/service"
)

type GigHandler struct {
	gigs *service.GigService
}

func NewGigHandler(gigs *service.GigService) *GigHandler {
	return &GigHandler{gigs: gigs}
}

// Create POST /gigs
func (h *GigHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	gig, err := h.gigs.Create(c.Request.Context(), userID, req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, gig)
}

// Get GET /gigs/:id
func (h *GigHandler) Get(c *gin.Context) {
	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid gig id")
		return
	}

	gig, err := h.gigs.Get(c.Request.Context(), gigID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gig)
}

// List GET /gigs
//
// Supports q, category, tags (comma separated), min_price, max_price,
// freelancer_id, limit and offset query parameters. Only active gigs
// come back on the public listing.
func (h *GigHandler) List(c *gin.Context) {
	limit, offset := common.ParseLimitOffset(c, 20, 100)

	filter := models.GigFilter{
		Query:      c.Query("q"),
		Category:   c.Query("category"),
		OnlyActive: true,
		Limit:      limit,
		Offset:     offset,
	}

	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			filter.MinPriceCents = v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			filter.MaxPriceCents = v
		}
	}
	if raw := c.Query("freelancer_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.FreelancerID = &id
		}
	}

	gigs, err := h.gigs.List(c.Request.Context(), filter)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gigs)
}

// Update PATCH /gigs/:id
func (h *GigHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid gig id")
		return
	}

	var req dto.UpdateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	gig, err := h.gigs.Update(c.Request.Context(), userID, gigID, req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gig)
}

// Deactivate DELETE /gigs/:id
func (h *GigHandler) Deactivate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid gig id")
		return
	}

	if err := h.gigs.Deactivate(c.Request.Context(), userID, gigID); err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"deactivated": true})
}
