package controller

import (
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService}
}

// GetPublicForm godoc
// @Summary 获取公开表单
// @Description 按公开链接读取已发布表单的结构，未发布返回404
// @Tags 作答
// @Produce  json
// @Param   publicKey path string true "公开key"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response
// @Router /api/public/forms/{publicKey} [get]
func (c *SubmissionController) GetPublicForm(ctx *gin.Context) {
	form, err := c.SubmissionService.PublishedForm(ctx.Request.Context(), ctx.Param("publicKey"))
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, form)
}

// Submit godoc
// @Summary 提交作答
// @Description 服务端重新计算规则与分值，被隐藏题目的作答会被丢弃
// @Tags 作答
// @Accept  json
// @Produce  json
// @Param   publicKey path string true "公开key"
// @Param   body body service.SubmitRequest true "作答"
// @Success 201 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/public/forms/{publicKey}/submissions [post]
func (c *SubmissionController) Submit(ctx *gin.Context) {
	var req service.SubmitRequest
	if !bindJSON(ctx, &req) {
		return
	}
	result, err := c.SubmissionService.Submit(ctx.Request.Context(), ctx.Param("publicKey"), &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Created(ctx, result)
}

// ListSubmissions godoc
// @Summary 表单提交列表
// @Tags 提交
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=[]model.Submission}
// @Router /api/forms/{formId}/submissions [get]
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	page, limit := util.ParsePage(ctx)
	subs, total, err := c.SubmissionService.List(ctx.Request.Context(), formID, page, limit)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Paged(ctx, subs, page, limit, total)
}

// GetSubmission godoc
// @Summary 提交详情
// @Tags 提交
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 404 {object} util.Response
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	sub, err := c.SubmissionService.Get(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, sub)
}

// DeleteSubmission godoc
// @Summary 删除提交
// @Tags 提交
// @Security ApiKeyAuth
// @Param   id path int true "提交ID"
// @Success 200 {object} util.Response
// @Router /api/submissions/{id} [delete]
func (c *SubmissionController) DeleteSubmission(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.SubmissionService.Delete(ctx.Request.Context(), id); err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, nil)
}
