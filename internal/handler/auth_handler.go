package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminEmailContextKey = "admin_email"

// Login 校验管理员凭据并签发 token，支持 JSON 与表单提交
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBind(&payload); err != nil {
		respondError(c, http.StatusBadRequest, text(c, "invalid login request", "登录请求不合法"))
		return
	}

	result, err := a.auth.Login(payload.Email, payload.Password)
	if err != nil {
		respondServiceError(c, err, "failed to sign in", "登录失败")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// AuthRequired 校验 Authorization: Bearer <token>
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			respondError(c, http.StatusUnauthorized, text(c, "authorization required", "请先登录"))
			c.Abort()
			return
		}

		claims, err := a.auth.Verify(token)
		if err != nil {
			respondServiceError(c, err, "authorization failed", "认证失败")
			c.Abort()
			return
		}

		c.Set(adminEmailContextKey, claims.Email)
		c.Next()
	}
}

// AdminEmail 返回当前请求已认证的管理员邮箱
func AdminEmail(c *gin.Context) string {
	return c.GetString(adminEmailContextKey)
}
