package handler

import (
	"net/http"

	"copycorner/internal/middleware"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

type StaffHandler struct {
	staffService    service.StaffService
	scheduleService service.ScheduleService
}

func NewStaffHandler(staffService service.StaffService, scheduleService service.ScheduleService) *StaffHandler {
	return &StaffHandler{staffService: staffService, scheduleService: scheduleService}
}

func (h *StaffHandler) RegisterRoutes(router *gin.RouterGroup) {
	staffs := router.Group("/staffs")
	{
		staffs.GET("", h.ListStaff)
		staffs.GET("/user/:user_id", h.GetStaff)
		staffs.PUT("/user/:user_id", h.UpdateStaff)
	}

	schedules := router.Group("/schedules")
	{
		schedules.GET("", h.ListSchedules)
		schedules.GET("/staff", h.ListStaffOptions)
		schedules.GET("/:id", h.GetSchedule)
		schedules.POST("", h.CreateSchedule)
		schedules.PUT("/:id", h.UpdateSchedule)
		schedules.DELETE("/:id", h.DeleteSchedule)
	}
}

// ListStaff handles GET /api/staffs
// @Summary      List staff
// @Description  Users whose group is a staff role, with their academic details
// @Tags         staff
// @Produce      json
// @Param        page      query     int  false  "Page number"
// @Param        per_page  query     int  false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/staffs [get]
func (h *StaffHandler) ListStaff(c *gin.Context) {
	page := pagination.Parse(c)
	staff, total, err := h.staffService.List(c.Request.Context(), &page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "staffs", staff, total, &page)
}

// GetStaff handles GET /api/staffs/user/:user_id
func (h *StaffHandler) GetStaff(c *gin.Context) {
	staff, err := h.staffService.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, staff))
}

// UpdateStaff handles PUT /api/staffs/user/:user_id
// @Summary      Update staff details
// @Tags         staff
// @Accept       json
// @Produce      json
// @Param        user_id  path      string                true  "User ID"
// @Param        payload  body      service.StaffRequest  true  "Staff details"
// @Success      200      {object}  response.Response{data=service.StaffResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/staffs/user/{user_id} [put]
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	var req service.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	staff, err := h.staffService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, staff))
}

// ListSchedules handles GET /api/schedules
func (h *StaffHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.scheduleService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"schedules": schedules}))
}

// ListStaffOptions handles GET /api/schedules/staff
func (h *StaffHandler) ListStaffOptions(c *gin.Context) {
	options, err := h.scheduleService.ListStaffOptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, options))
}

// GetSchedule handles GET /api/schedules/:id
func (h *StaffHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedule))
}

// CreateSchedule handles POST /api/schedules
// @Summary      Create schedule
// @Description  day is a weekday name, times are HH:MM and end_time must follow start_time
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ScheduleRequest  true  "Schedule"
// @Success      201      {object}  response.Response{data=service.ScheduleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/schedules [post]
func (h *StaffHandler) CreateSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	schedule, err := h.scheduleService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, schedule))
}

// UpdateSchedule handles PUT /api/schedules/:id
func (h *StaffHandler) UpdateSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	schedule, err := h.scheduleService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedule))
}

// DeleteSchedule handles DELETE /api/schedules/:id
func (h *StaffHandler) DeleteSchedule(c *gin.Context) {
	if err := h.scheduleService.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Schedule deleted successfully"))
}
