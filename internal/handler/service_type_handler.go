package handler

import (
	"net/http"

	"copycorner/internal/middleware"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

type ServiceTypeHandler struct {
	serviceTypeService service.ServiceTypeService
}

func NewServiceTypeHandler(serviceTypeService service.ServiceTypeService) *ServiceTypeHandler {
	return &ServiceTypeHandler{serviceTypeService: serviceTypeService}
}

func (h *ServiceTypeHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/service_types")
	{
		group.GET("", h.ListServiceTypes)
		group.GET("/archived", h.ListArchivedServiceTypes)
		group.GET("/category/:id", h.ListServiceTypesByCategory)
		group.GET("/:id", h.GetServiceType)
		group.GET("/:id/products", h.ListServiceTypeProducts)
		group.POST("", h.CreateServiceType)
		group.POST("/renumber", h.RenumberServiceTypes)
		group.PUT("/:id", h.UpdateServiceType)
		group.PATCH("/:id/archive", h.ArchiveServiceType)
		group.PATCH("/:id/restore", h.RestoreServiceType)
		group.DELETE("/:id", h.DeleteServiceType)
	}
}

// ListServiceTypes handles GET /api/service_types
// @Summary      List service types
// @Tags         service types
// @Produce      json
// @Param        search    query     string  false  "Name filter"
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/service_types [get]
func (h *ServiceTypeHandler) ListServiceTypes(c *gin.Context) {
	page := pagination.ParseOptional(c)
	items, total, err := h.serviceTypeService.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "service_types", items, total, page)
}

// ListArchivedServiceTypes handles GET /api/service_types/archived
func (h *ServiceTypeHandler) ListArchivedServiceTypes(c *gin.Context) {
	page := pageParam(c)
	items, total, err := h.serviceTypeService.ListArchived(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "service_types", items, total, page)
}

// ListServiceTypesByCategory handles GET /api/service_types/category/:id
// @Summary      Service types of a category
// @Description  Active, non-archived service types of one category
// @Tags         service types
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=[]service.ServiceTypeResponse}
// @Router       /api/service_types/category/{id} [get]
func (h *ServiceTypeHandler) ListServiceTypesByCategory(c *gin.Context) {
	items, err := h.serviceTypeService.ListByCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetServiceType handles GET /api/service_types/:id
func (h *ServiceTypeHandler) GetServiceType(c *gin.Context) {
	res, err := h.serviceTypeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ListServiceTypeProducts handles GET /api/service_types/:id/products
func (h *ServiceTypeHandler) ListServiceTypeProducts(c *gin.Context) {
	items, err := h.serviceTypeService.ListProducts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreateServiceType handles POST /api/service_types
// @Summary      Create service type
// @Description  Adds a service type with the next ST- code
// @Tags         service types
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ServiceTypeRequest  true  "Service type"
// @Success      201      {object}  response.Response{data=service.ServiceTypeResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/service_types [post]
func (h *ServiceTypeHandler) CreateServiceType(c *gin.Context) {
	var req service.ServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.serviceTypeService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// UpdateServiceType handles PUT /api/service_types/:id
func (h *ServiceTypeHandler) UpdateServiceType(c *gin.Context) {
	var req service.ServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.serviceTypeService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ArchiveServiceType handles PATCH /api/service_types/:id/archive
func (h *ServiceTypeHandler) ArchiveServiceType(c *gin.Context) {
	res, err := h.serviceTypeService.Archive(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// RestoreServiceType handles PATCH /api/service_types/:id/restore
func (h *ServiceTypeHandler) RestoreServiceType(c *gin.Context) {
	res, err := h.serviceTypeService.Restore(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DeleteServiceType handles DELETE /api/service_types/:id
func (h *ServiceTypeHandler) DeleteServiceType(c *gin.Context) {
	if err := h.serviceTypeService.Purge(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), forceParam(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Service type deleted successfully"))
}

// RenumberServiceTypes handles POST /api/service_types/renumber
func (h *ServiceTypeHandler) RenumberServiceTypes(c *gin.Context) {
	changed, err := h.serviceTypeService.Renumber(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"renumbered": changed}))
}
