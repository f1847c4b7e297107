package handler

import (
	"net/http"

	"copycorner/internal/middleware"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/categories")
	{
		group.GET("", h.ListCategories)
		group.GET("/archived", h.ListArchivedCategories)
		group.GET("/:id", h.GetCategory)
		group.POST("", h.CreateCategory)
		group.PUT("/:id", h.UpdateCategory)
		group.PATCH("/:id/archive", h.ArchiveCategory)
		group.PATCH("/:id/restore", h.RestoreCategory)
		group.DELETE("/:id", h.DeleteCategory)
	}
}

// ListCategories handles GET /api/categories
// @Summary      List categories
// @Description  Lists active categories with their live product and service type counts. Paginated when page or per_page is given.
// @Tags         categories
// @Produce      json
// @Param        search    query     string  false  "Name filter"
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Items per page (max 100)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	page := pagination.ParseOptional(c)
	items, total, err := h.categoryService.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "categories", items, total, page)
}

// ListArchivedCategories handles GET /api/categories/archived
// @Summary      List archived categories
// @Tags         categories
// @Produce      json
// @Param        page      query     int  false  "Page number"
// @Param        per_page  query     int  false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/categories/archived [get]
func (h *CategoryHandler) ListArchivedCategories(c *gin.Context) {
	page := pageParam(c)
	items, total, err := h.categoryService.ListArchived(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "categories", items, total, page)
}

// GetCategory handles GET /api/categories/:id
// @Summary      Get category
// @Tags         categories
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=service.CategoryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	res, err := h.categoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CreateCategory handles POST /api/categories
// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      201      {object}  response.Response{data=service.CategoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.categoryService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// UpdateCategory handles PUT /api/categories/:id
// @Summary      Update category
// @Description  Renaming is refused while active products or service types reference the category.
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      200      {object}  response.Response{data=service.CategoryResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.categoryService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ArchiveCategory handles PATCH /api/categories/:id/archive
// @Summary      Archive category
// @Description  Fails with 409 and a sample of blockers while active products or service types reference it.
// @Tags         categories
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=service.CategoryResponse}
// @Failure      409  {object}  response.Response{details=apperror.ConflictDetails}
// @Router       /api/categories/{id}/archive [patch]
func (h *CategoryHandler) ArchiveCategory(c *gin.Context) {
	res, err := h.categoryService.Archive(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// RestoreCategory handles PATCH /api/categories/:id/restore
// @Summary      Restore category
// @Tags         categories
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=service.CategoryResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/categories/{id}/restore [patch]
func (h *CategoryHandler) RestoreCategory(c *gin.Context) {
	res, err := h.categoryService.Restore(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary      Delete category
// @Description  Hard delete. Guarded like archive unless force=true.
// @Tags         categories
// @Produce      json
// @Param        id     path      string  true   "Category ID"
// @Param        force  query     bool    false  "Skip the dependency guard"
// @Success      200    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.categoryService.Purge(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), forceParam(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Category deleted successfully"))
}
