package policy

import (
	"github.com/gin-gonic/gin"

	"go-leave-engine/internal/middleware"
	"go-leave-engine/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	rules := r.Group("/policy/rules")
	rules.Use(middleware.AuthMiddleware())
	{
		rules.GET("", middleware.RBACAuthorize(rbacService, "policy", "read"), handler.ListRules)
		rules.PUT("/:rule_code", middleware.RBACAuthorize(rbacService, "policy", "configure"), handler.ConfigureRule)
	}
}
