package handler

import (
	"net/http"

	"copycorner/internal/middleware"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	transactionService service.TransactionService
}

func NewTransactionHandler(transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/transactions")
	{
		group.GET("", h.ListTransactions)
		group.GET("/archived", h.ListArchivedTransactions)
		group.GET("/status/:status", h.ListTransactionsByStatus)
		group.GET("/:id", h.GetTransaction)
		group.POST("", h.CreateTransaction)
		group.POST("/renumber", h.RenumberTransactions)
		group.PUT("/:id", h.UpdateTransaction)
		group.PATCH("/:id/archive", h.ArchiveTransaction)
		group.PATCH("/:id/restore", h.RestoreTransaction)
		group.DELETE("/:id", h.DeleteTransaction)
	}
}

// ListTransactions handles GET /api/transactions
// @Summary      List transactions
// @Tags         transactions
// @Produce      json
// @Param        search    query     string  false  "Customer name filter"
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	page := pagination.ParseOptional(c)
	items, total, err := h.transactionService.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "transactions", items, total, page)
}

// ListArchivedTransactions handles GET /api/transactions/archived
func (h *TransactionHandler) ListArchivedTransactions(c *gin.Context) {
	page := pageParam(c)
	items, total, err := h.transactionService.ListArchived(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "transactions", items, total, page)
}

// ListTransactionsByStatus handles GET /api/transactions/status/:status
// @Summary      List transactions by status
// @Tags         transactions
// @Produce      json
// @Param        status    path      string  true   "Pending or Completed"
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Router       /api/transactions/status/{status} [get]
func (h *TransactionHandler) ListTransactionsByStatus(c *gin.Context) {
	page := pagination.ParseOptional(c)
	items, total, err := h.transactionService.ListByStatus(c.Request.Context(), c.Param("status"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "transactions", items, total, page)
}

// GetTransaction handles GET /api/transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	res, err := h.transactionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CreateTransaction handles POST /api/transactions
// @Summary      Create transaction
// @Description  Issues the next T- code and queue number. A Completed transaction deducts stock immediately.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TransactionRequest  true  "Transaction"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req service.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.transactionService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// UpdateTransaction handles PUT /api/transactions/:id
// @Summary      Update transaction
// @Description  Reconciles stock when the status, product, pages or quantity change
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Transaction ID"
// @Param        payload  body      service.TransactionRequest  true  "Transaction"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	var req service.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.transactionService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ArchiveTransaction handles PATCH /api/transactions/:id/archive
func (h *TransactionHandler) ArchiveTransaction(c *gin.Context) {
	res, err := h.transactionService.Archive(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// RestoreTransaction handles PATCH /api/transactions/:id/restore
func (h *TransactionHandler) RestoreTransaction(c *gin.Context) {
	res, err := h.transactionService.Restore(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DeleteTransaction handles DELETE /api/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	if err := h.transactionService.Purge(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), forceParam(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Transaction deleted successfully"))
}

// RenumberTransactions handles POST /api/transactions/renumber
// @Summary      Renumber transactions
// @Tags         transactions
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/transactions/renumber [post]
func (h *TransactionHandler) RenumberTransactions(c *gin.Context) {
	changed, err := h.transactionService.Renumber(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"renumbered": changed}))
}
