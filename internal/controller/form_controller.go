package controller

import (
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FormController struct {
	FormService *service.FormService
}

func NewFormController(formService *service.FormService) *FormController {
	return &FormController{FormService: formService}
}

// CreateForm godoc
// @Summary 创建表单
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.FormRequest true "表单信息"
// @Success 201 {object} util.Response{data=model.Form}
// @Failure 400 {object} util.Response
// @Router /api/forms [post]
func (c *FormController) CreateForm(ctx *gin.Context) {
	var req service.FormRequest
	if !bindJSON(ctx, &req) {
		return
	}
	form, err := c.FormService.Create(ctx.Request.Context(), &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Created(ctx, form)
}

// ListForms godoc
// @Summary 表单列表
// @Description 支持按标题搜索与分页
// @Tags 表单
// @Produce  json
// @Security ApiKeyAuth
// @Param   search query string false "标题关键字"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=[]model.Form}
// @Router /api/forms [get]
func (c *FormController) ListForms(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	forms, total, err := c.FormService.List(ctx.Request.Context(), ctx.Query("search"), page, limit)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Paged(ctx, forms, page, limit, total)
}

// GetForm godoc
// @Summary 表单详情
// @Description 返回包含页、题目、选项的完整结构
// @Tags 表单
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response
// @Router /api/forms/{formId} [get]
func (c *FormController) GetForm(ctx *gin.Context) {
	id, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	form, err := c.FormService.Get(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, form)
}

// UpdateForm godoc
// @Summary 更新表单
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   body body service.FormRequest true "表单信息"
// @Success 200 {object} util.Response{data=model.Form}
// @Router /api/forms/{formId} [put]
func (c *FormController) UpdateForm(ctx *gin.Context) {
	id, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	var req service.FormRequest
	if !bindJSON(ctx, &req) {
		return
	}
	form, err := c.FormService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, form)
}

// DeleteForm godoc
// @Summary 删除表单
// @Description 同时删除页、题目与规则
// @Tags 表单
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response
// @Router /api/forms/{formId} [delete]
func (c *FormController) DeleteForm(ctx *gin.Context) {
	id, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	if err := c.FormService.Delete(ctx.Request.Context(), id); err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, nil)
}

// PublishForm godoc
// @Summary 发布表单
// @Tags 表单
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 400 {object} util.Response "表单没有题目"
// @Router /api/forms/{formId}/publish [post]
func (c *FormController) PublishForm(ctx *gin.Context) {
	id, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	form, err := c.FormService.Publish(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, form)
}

// UnpublishForm godoc
// @Summary 取消发布
// @Tags 表单
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Router /api/forms/{formId}/unpublish [post]
func (c *FormController) UnpublishForm(ctx *gin.Context) {
	id, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	form, err := c.FormService.Unpublish(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, form)
}

// RegenerateKey godoc
// @Summary 重新生成公开链接
// @Description 旧链接立即失效
// @Tags 表单
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Router /api/forms/{formId}/regenerate-key [post]
func (c *FormController) RegenerateKey(ctx *gin.Context) {
	id, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	form, err := c.FormService.RegenerateKey(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, form)
}

// CreatePage godoc
// @Summary 新增页
// @Tags 表单页
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   body body service.PageRequest true "页信息"
// @Success 201 {object} util.Response{data=model.Page}
// @Router /api/forms/{formId}/pages [post]
func (c *FormController) CreatePage(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	var req service.PageRequest
	if !bindJSON(ctx, &req) {
		return
	}
	page, err := c.FormService.CreatePage(ctx.Request.Context(), formID, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Created(ctx, page)
}

// ListPages godoc
// @Summary 页列表
// @Tags 表单页
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Success 200 {object} util.Response{data=[]model.Page}
// @Router /api/forms/{formId}/pages [get]
func (c *FormController) ListPages(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	pages, err := c.FormService.ListPages(ctx.Request.Context(), formID)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, pages)
}

// UpdatePage godoc
// @Summary 更新页
// @Tags 表单页
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   pageId path int true "页ID"
// @Param   body body service.PageRequest true "页信息"
// @Success 200 {object} util.Response{data=model.Page}
// @Router /api/forms/{formId}/pages/{pageId} [put]
func (c *FormController) UpdatePage(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	pageID, ok := idParam(ctx, "pageId")
	if !ok {
		return
	}
	var req service.PageRequest
	if !bindJSON(ctx, &req) {
		return
	}
	page, err := c.FormService.UpdatePage(ctx.Request.Context(), formID, pageID, &req)
	if err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, page)
}

// DeletePage godoc
// @Summary 删除页
// @Description 同时删除页内题目及引用它们的规则
// @Tags 表单页
// @Security ApiKeyAuth
// @Param   formId path int true "表单ID"
// @Param   pageId path int true "页ID"
// @Success 200 {object} util.Response
// @Router /api/forms/{formId}/pages/{pageId} [delete]
func (c *FormController) DeletePage(ctx *gin.Context) {
	formID, ok := idParam(ctx, "formId")
	if !ok {
		return
	}
	pageID, ok := idParam(ctx, "pageId")
	if !ok {
		return
	}
	if err := c.FormService.DeletePage(ctx.Request.Context(), formID, pageID); err != nil {
		ctx.Error(err)
		return
	}
	util.Success(ctx, nil)
}
