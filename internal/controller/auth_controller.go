package controller

import (
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/service"
	"placement_test_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	service *service.AuthService
	cfg     *config.Config
}

func NewAuthController(s *service.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{service: s, cfg: cfg}
}

type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// IssueToken godoc
// @Summary 用运维 API Key 换取访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body TokenRequest true "API Key"
// @Success 200 {object} util.Response
// @Router /api/auth/token [post]
func (c *AuthController) IssueToken(ctx *gin.Context) {
	var req TokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.service.IssueToken(req.APIKey)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"token":      token,
		"expires_in": int64(c.cfg.JWT.ExpireTime.Seconds()),
	})
}
