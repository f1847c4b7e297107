package handler

import (
	"net/http"

	"copycorner/internal/middleware"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves products and the inventory report.
type InventoryHandler struct {
	productService service.ProductService
	reportService  service.ReportService
}

func NewInventoryHandler(productService service.ProductService, reportService service.ReportService) *InventoryHandler {
	return &InventoryHandler{productService: productService, reportService: reportService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/archived", h.GetArchivedProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", h.CreateProduct)
		products.POST("/renumber", h.RenumberProducts)
		products.PUT("/:id", h.UpdateProduct)
		products.PATCH("/:id/archive", h.ArchiveProduct)
		products.PATCH("/:id/restore", h.RestoreProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
	router.GET("/reports/inventory", h.GetInventoryReport)
}

// GetProducts handles retrieving inventory statuses
// @Summary      Get products
// @Description  Lists active products with current stock and derived status
// @Tags         inventory
// @Produce      json
// @Param        page         query     int     false  "Page number"
// @Param        per_page     query     int     false  "Items per page (max 100)"
// @Param        search       query     string  false  "Search by product name"
// @Param        category_id  query     string  false  "Filter by category"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	page := pagination.ParseOptional(c)
	products, total, err := h.productService.List(c.Request.Context(), c.Query("search"), c.Query("category_id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "products", products, total, page)
}

// GetArchivedProducts handles GET /api/products/archived
// @Summary      List archived products
// @Tags         inventory
// @Produce      json
// @Param        page      query     int  false  "Page number"
// @Param        per_page  query     int  false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/products/archived [get]
func (h *InventoryHandler) GetArchivedProducts(c *gin.Context) {
	page := pageParam(c)
	products, total, err := h.productService.ListArchived(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "products", products, total, page)
}

// GetProduct handles GET /api/products/:id
// @Summary      Get product
// @Tags         inventory
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	res, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CreateProduct handles creating a new product
// @Summary      Create product
// @Description  Adds a product with the next PROD_ code
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.productService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// UpdateProduct handles updating an existing product
// @Summary      Update product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.productService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ArchiveProduct handles PATCH /api/products/:id/archive
// @Summary      Archive product
// @Description  Archives the product and compacts the remaining PROD_ codes
// @Tags         inventory
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id}/archive [patch]
func (h *InventoryHandler) ArchiveProduct(c *gin.Context) {
	res, err := h.productService.Archive(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// RestoreProduct handles PATCH /api/products/:id/restore
// @Summary      Restore product
// @Tags         inventory
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id}/restore [patch]
func (h *InventoryHandler) RestoreProduct(c *gin.Context) {
	res, err := h.productService.Restore(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DeleteProduct handles deleting a product
// @Summary      Delete product
// @Tags         inventory
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        force  query     bool    false  "Skip the dependency guard"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Purge(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), forceParam(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// RenumberProducts handles POST /api/products/renumber
// @Summary      Renumber products
// @Description  Rewrites active product codes to PROD_001..N in creation order
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/products/renumber [post]
func (h *InventoryHandler) RenumberProducts(c *gin.Context) {
	changed, err := h.productService.Renumber(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"renumbered": changed}))
}

// GetInventoryReport handles GET /api/reports/inventory
// @Summary      Inventory report
// @Description  Counts active products per stock status and lists low and out of stock items
// @Tags         reports
// @Produce      json
// @Success      200  {object}  response.Response{data=service.InventoryReport}
// @Router       /api/reports/inventory [get]
func (h *InventoryHandler) GetInventoryReport(c *gin.Context) {
	report, err := h.reportService.Inventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
