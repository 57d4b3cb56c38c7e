package controller

import (
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ScoringController struct {
	ScoringService *service.ScoringService
}

func NewScoringController(scoringService *service.ScoringService) *ScoringController {
	return &ScoringController{ScoringService: scoringService}
}

// Recalculate godoc
// @Summary 重新计分
// @Description 按当前分值重算表单全部提交，结果整体写入，可重复执行
// @Tags 计分
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=service.RecalculationResult}
// @Router /api/forms/{formId}/scoring/recalculate [post]
func (c *ScoringController) Recalculate(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	result, err := c.ScoringService.Recalculate(ctx.Request.Context(), formID)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, result)
}

// GetSubmissionScore godoc
// @Summary 提交得分明细
// @Tags 计分
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Success 200 {object} util.Response{data=service.SubmissionScore}
// @Router /api/submissions/{id}/score [get]
func (c *ScoringController) GetSubmissionScore(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	score, err := c.ScoringService.GetSubmissionScore(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, score)
}
