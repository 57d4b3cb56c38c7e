package controller

import (
	"fmt"
	"net/http"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// CreateExport godoc
// @Summary 生成导出文件
// @Description 支持 csv / xlsx / pdf，时间按 timeZone 或 X-Time-Zone 请求头显示
// @Tags 导出
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   body body service.ExportRequest true "导出参数"
// @Success 201 {object} util.Response{data=model.ExportArtifact}
// @Failure 400 {object} util.Response
// @Router /api/forms/{formId}/exports [post]
func (c *ExportController) CreateExport(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	var req service.ExportRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if req.TimeZone == "" {
		req.TimeZone = ctx.GetHeader(util.HeaderTimeZone)
	}
	artifact, err := c.ExportService.CreateExport(ctx.Request.Context(), formID, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Created(ctx, artifact)
}

// GetExport godoc
// @Summary 导出文件信息
// @Tags 导出
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "导出ID"
// @Success 200 {object} util.Response{data=model.ExportArtifact}
// @Failure 404 {object} util.Response "不存在或已过期"
// @Router /api/exports/{id} [get]
func (c *ExportController) GetExport(ctx *gin.Context) {
	artifact, err := c.ExportService.GetExport(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, artifact)
}

// DownloadExport godoc
// @Summary 下载导出文件
// @Tags 导出
// @Produce  octet-stream
// @Security ApiKeyAuth
// @Param   id path string true "导出ID"
// @Success 200 {file} file
// @Failure 404 {object} util.Response "不存在或已过期"
// @Router /api/exports/{id}/download [get]
func (c *ExportController) DownloadExport(ctx *gin.Context) {
	artifact, body, err := c.ExportService.Download(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.Error(err)
		return
	}
	defer body.Close()

	ctx.DataFromReader(http.StatusOK, artifact.Size, artifact.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, artifact.FileName),
	})
}

// PurgeExpired godoc
// @Summary 清理过期导出
// @Tags 导出
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/exports/expired [delete]
func (c *ExportController) PurgeExpired(ctx *gin.Context) {
	n, err := c.ExportService.PurgeExpired(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, gin.H{"purged": n})
}
