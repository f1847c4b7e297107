package handler

import (
	"net/http"

	"copycorner/internal/middleware"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/groups")
	{
		groups.GET("", h.ListGroups)
		groups.GET("/archived", h.ListArchivedGroups)
		groups.GET("/:id", h.GetGroup)
		groups.POST("", h.CreateGroup)
		groups.PUT("/:id", h.UpdateGroup)
		groups.PATCH("/:id/archive", h.ArchiveGroup)
		groups.PATCH("/:id/restore", h.RestoreGroup)
		groups.DELETE("/:id", h.DeleteGroup)
	}
}

// ListGroups returns active groups with their user counts
func (h *GroupHandler) ListGroups(c *gin.Context) {
	page := pagination.ParseOptional(c)
	groups, total, err := h.groupService.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "groups", groups, total, page)
}

// ListArchivedGroups returns archived groups, most recently archived first
func (h *GroupHandler) ListArchivedGroups(c *gin.Context) {
	page := pageParam(c)
	groups, total, err := h.groupService.ListArchived(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "groups", groups, total, page)
}

// GetGroup returns a single group by ID
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// CreateGroup creates a new group
// @Summary      Create group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GroupRequest  true  "Group"
// @Success      201      {object}  response.Response{data=service.GroupResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	group, err := h.groupService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// UpdateGroup updates a group
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req service.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	group, err := h.groupService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// ArchiveGroup archives a group with no active users
// @Summary      Archive group
// @Tags         groups
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  response.Response{data=service.GroupResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/groups/{id}/archive [patch]
func (h *GroupHandler) ArchiveGroup(c *gin.Context) {
	group, err := h.groupService.Archive(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// RestoreGroup restores an archived group
func (h *GroupHandler) RestoreGroup(c *gin.Context) {
	group, err := h.groupService.Restore(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// DeleteGroup deletes a group
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groupService.Purge(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), forceParam(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Group deleted successfully"))
}
