package controller

import (
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TimeZoneController struct {
	TimeZoneService *service.TimeZoneService
}

func NewTimeZoneController(timeZoneService *service.TimeZoneService) *TimeZoneController {
	return &TimeZoneController{TimeZoneService: timeZoneService}
}

// ListTimeZones godoc
// @Summary 时区列表
// @Description 导出时可用的时区代码
// @Tags 系统
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.MasterTimeZone}
// @Router /api/timezones [get]
func (c *TimeZoneController) ListTimeZones(ctx *gin.Context) {
	zones, err := c.TimeZoneService.List(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, zones)
}
