package controller

import (
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// CreateQuestion godoc
// @Summary 新增题目
// @Description 选项、矩阵行列随题目一并提交
// @Tags 题目
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   body body service.QuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/forms/{formId}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	var req service.QuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	q, err := c.QuestionService.Create(ctx.Request.Context(), formID, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Created(ctx, q)
}

// ListQuestions godoc
// @Summary 表单题目列表
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/forms/{formId}/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	questions, err := c.QuestionService.ListByForm(ctx.Request.Context(), formID)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, questions)
}

// GetQuestion godoc
// @Summary 题目详情
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	q, err := c.QuestionService.Get(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Description 带 id 的子项原地更新，缺失的子项被删除，题型不可修改
// @Tags 题目
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Param   body body service.QuestionRequest true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	q, err := c.QuestionService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 题目
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuestionService.Delete(ctx.Request.Context(), id); err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, nil)
}
