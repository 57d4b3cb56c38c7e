package controller

import (
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RuleController struct {
	RuleService *service.RuleService
}

func NewRuleController(ruleService *service.RuleService) *RuleController {
	return &RuleController{RuleService: ruleService}
}

// CreateRule godoc
// @Summary 新增条件规则
// @Tags 规则
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   body body service.RuleRequest true "规则"
// @Success 201 {object} util.Response{data=model.Rule}
// @Failure 400 {object} util.Response
// @Router /api/forms/{formId}/rules [post]
func (c *RuleController) CreateRule(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	var req service.RuleRequest
	if !bindJSON(ctx, &req) {
		return
	}
	rule, err := c.RuleService.Create(ctx.Request.Context(), formID, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Created(ctx, rule)
}

// ListRules godoc
// @Summary 表单规则列表
// @Description 按执行顺序返回
// @Tags 规则
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=[]model.Rule}
// @Router /api/forms/{formId}/rules [get]
func (c *RuleController) ListRules(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	rules, err := c.RuleService.List(ctx.Request.Context(), formID)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, rules)
}

// GetRule godoc
// @Summary 规则详情
// @Tags 规则
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "规则ID"
// @Success 200 {object} util.Response{data=model.Rule}
// @Router /api/rules/{id} [get]
func (c *RuleController) GetRule(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rule, err := c.RuleService.Get(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, rule)
}

// UpdateRule godoc
// @Summary 更新规则
// @Tags 规则
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "规则ID"
// @Param   body body service.RuleRequest true "规则"
// @Success 200 {object} util.Response{data=model.Rule}
// @Router /api/rules/{id} [put]
func (c *RuleController) UpdateRule(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.RuleRequest
	if !bindJSON(ctx, &req) {
		return
	}
	rule, err := c.RuleService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, rule)
}

// DeleteRule godoc
// @Summary 删除规则
// @Tags 规则
// @Security ApiKeyAuth
// @Param   id path int true "规则ID"
// @Success 200 {object} util.Response
// @Router /api/rules/{id} [delete]
func (c *RuleController) DeleteRule(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.RuleService.Delete(ctx.Request.Context(), id); err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, nil)
}

// EvaluateRules godoc
// @Summary 规则预览
// @Description 用给定作答计算隐藏、显示、跳页与终止结果，不保存
// @Tags 规则
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   body body service.EvaluateRequest true "作答"
// @Success 200 {object} util.Response{data=service.RuleEvaluation}
// @Router /api/forms/{formId}/rules/evaluate [post]
func (c *RuleController) EvaluateRules(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	var req service.EvaluateRequest
	if !bindJSON(ctx, &req) {
		return
	}
	eval, err := c.RuleService.Evaluate(ctx.Request.Context(), formID, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, eval)
}
