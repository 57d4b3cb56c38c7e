package controller

import (
	"questionnaire_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// bindJSON 绑定失败时记录校验错误，由 ErrorHandler 输出 400
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		ctx.Error(util.NewValidationError("body", "%v", err))
		return false
	}
	return true
}

func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := util.ParseIDParam(ctx, name)
	if err != nil {
		ctx.Error(err)
		return 0, false
	}
	return id, true
}
