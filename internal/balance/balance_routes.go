package balance

import (
	"github.com/gin-gonic/gin"

	"go-leave-engine/internal/middleware"
	"go-leave-engine/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("/:employee_id", middleware.RBACAuthorize(rbacService, "leave_balance", "read"), handler.GetByEmployee)
	}
}
