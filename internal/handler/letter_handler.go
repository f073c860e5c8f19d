package handler

import (
	"net/http"
	"strconv"

	"backend/internal/lettertype"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LetterHandler struct {
	letterService    service.LetterService
	numberingService service.NumberingService
	registry         *lettertype.Registry
}

func NewLetterHandler(letterService service.LetterService, numberingService service.NumberingService, registry *lettertype.Registry) *LetterHandler {
	return &LetterHandler{
		letterService:    letterService,
		numberingService: numberingService,
		registry:         registry,
	}
}

func (h *LetterHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/letter-types", middleware.RequireAuth(), h.ListLetterTypes)

	letters := router.Group("/api/letters")
	{
		letters.POST("", middleware.RequireAuth(), h.CreateLetter)
		letters.GET("", middleware.RequireAuth(), h.ListLetters)
		letters.GET("/:id", middleware.RequireAuth(), h.GetLetter)
		letters.DELETE("/:id", middleware.RequireAuth(), h.DeleteLetter)

		supervisory := middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor)
		letters.PUT("/:id/status", supervisory, h.UpdateStatus)
		letters.PUT("/:id/number/assign", supervisory, h.AssignNumber)
		letters.PUT("/:id/number/cancel", supervisory, h.CancelNumber)
		letters.PUT("/:id/number/edit", supervisory, h.EditNumber)
	}

	stats := router.Group("/api/statistics")
	{
		stats.GET("/numbering", middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor), h.NumberingStats)
	}
}

// ListLetterTypes returns the static letter-type catalog
// @Summary      List letter types
// @Description  Returns every requestable letter type with its required supplementary fields
// @Tags         letters
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/letter-types [get]
func (h *LetterHandler) ListLetterTypes(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.registry.All()))
}

// CreateLetter submits a new letter request
// @Summary      Request a letter
// @Description  Creates a pending letter request after validating the type and its required fields
// @Tags         letters
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLetterRequest  true  "Letter Request"
// @Success      201      {object}  response.Response{data=model.Letter}
// @Failure      400      {object}  response.Response "Invalid type or missing required fields"
// @Router       /api/letters [post]
func (h *LetterHandler) CreateLetter(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.CreateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	letter, err := h.letterService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, letter))
}

// ListLetters returns letters, filtered and paginated
// @Summary      List letters
// @Description  Students see only their own letters; staff see all. Filterable by status and type.
// @Tags         letters
// @Produce      json
// @Security     BearerAuth
// @Param        status       query  string  false  "pending | approved | rejected | completed"
// @Param        letter_type  query  string  false  "Letter type code"
// @Param        page         query  int     false  "Page"
// @Param        limit        query  int     false  "Page size"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/letters [get]
func (h *LetterHandler) ListLetters(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	filter := service.LetterListFilter{
		Status:     c.Query("status"),
		LetterType: c.Query("letter_type"),
		Page:       params.Page,
		Limit:      params.Limit,
	}

	letters, total, err := h.letterService.List(c.Request.Context(), actor, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      http.StatusOK,
		"data":        letters,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": params.Pages(total),
	})
}

// GetLetter returns a single letter by id
// @Summary      Get letter
// @Tags         letters
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Letter ID"
// @Success      200  {object}  response.Response{data=model.Letter}
// @Failure      404  {object}  response.Response
// @Router       /api/letters/{id} [get]
func (h *LetterHandler) GetLetter(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid letter id"))
		return
	}

	letter, err := h.letterService.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, letter))
}

// UpdateStatus approves or rejects a pending letter
// @Summary      Approve or reject a letter
// @Description  Approval automatically assigns the next letter number in the current scope (best effort)
// @Tags         letters
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                       true  "Letter ID"
// @Param        payload  body  service.ChangeStatusRequest  true  "Target status"
// @Success      200  {object}  response.Response{data=model.Letter}
// @Failure      422  {object}  response.Response "Letter is not pending"
// @Router       /api/letters/{id}/status [put]
func (h *LetterHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid letter id"))
		return
	}

	var req service.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	letter, err := h.letterService.ChangeStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, letter))
}

// DeleteLetter removes a pending letter
// @Summary      Delete letter
// @Description  Only pending letters can be deleted, by their requester or an admin
// @Tags         letters
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Letter ID"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response "Letter is not pending"
// @Router       /api/letters/{id} [delete]
func (h *LetterHandler) DeleteLetter(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid letter id"))
		return
	}

	if err := h.letterService.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Letter deleted successfully"}))
}

// AssignNumber gives an approved, numberless letter the next number in scope
// @Summary      Assign letter number
// @Description  Retry path for letters that were approved but whose automatic numbering failed
// @Tags         numbering
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Letter ID"
// @Success      200  {object}  response.Response{data=model.Letter}
// @Failure      422  {object}  response.Response "Letter is not approved or already numbered"
// @Router       /api/letters/{id}/number/assign [put]
func (h *LetterHandler) AssignNumber(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid letter id"))
		return
	}

	letter, err := h.numberingService.Assign(c.Request.Context(), id, &actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, letter))
}

// CancelNumber clears a letter's assigned number
// @Summary      Cancel letter number
// @Description  Clears the number without touching status or approval metadata. The ordinal is never reused.
// @Tags         numbering
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Letter ID"
// @Success      200  {object}  response.Response{data=model.Letter}
// @Failure      422  {object}  response.Response "Letter has no number"
// @Router       /api/letters/{id}/number/cancel [put]
func (h *LetterHandler) CancelNumber(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid letter id"))
		return
	}

	letter, err := h.numberingService.Cancel(c.Request.Context(), id, &actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, letter))
}

type editNumberRequest struct {
	LetterNumber string `json:"letter_number" binding:"required"`
}

// EditNumber replaces a letter's number with an arbitrary unique string
// @Summary      Edit letter number
// @Description  Only global uniqueness is enforced; no format or scope validation
// @Tags         numbering
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string             true  "Letter ID"
// @Param        payload  body  editNumberRequest  true  "New letter number"
// @Success      200  {object}  response.Response{data=model.Letter}
// @Failure      409  {object}  response.Response "Number already in use"
// @Router       /api/letters/{id}/number/edit [put]
func (h *LetterHandler) EditNumber(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid letter id"))
		return
	}

	var req editNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Letter number is required"))
		return
	}

	letter, err := h.numberingService.Edit(c.Request.Context(), id, req.LetterNumber, &actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, letter))
}

// NumberingStats reports yearly numbering aggregates
// @Summary      Letter numbering statistics
// @Description  Per-type counts and highest sequence ordinals for a year (defaults to the current year)
// @Tags         numbering
// @Produce      json
// @Security     BearerAuth
// @Param        year  query  int  false  "Year"
// @Success      200  {object}  response.Response{data=model.NumberingStats}
// @Router       /api/statistics/numbering [get]
func (h *LetterHandler) NumberingStats(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid year"))
			return
		}
		year = parsed
	}

	stats, err := h.numberingService.Statistics(c.Request.Context(), year)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
