package app

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go-leave-engine/internal/balance"
	"go-leave-engine/internal/decision"
	"go-leave-engine/internal/hierarchy"
	"go-leave-engine/internal/leave"
	"go-leave-engine/internal/messaging/kafka"
	"go-leave-engine/internal/middleware"
	"go-leave-engine/internal/policy"
	"go-leave-engine/internal/rbac"
	"go-leave-engine/internal/rbac/infra"
	"go-leave-engine/internal/shared/counter"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	policyRepo := policy.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	hierarchyRepo := hierarchy.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	policyService := policy.NewService(policyRepo, rdb)
	balanceService := balance.NewService(balanceRepo, policyService)
	hierarchyService := hierarchy.NewService(hierarchyRepo)
	engine := decision.NewEngine()
	leaveService := leave.NewService(db, leaveRepo, leave.Deps{
		BalanceRepo:      balanceRepo,
		BalanceService:   balanceService,
		PolicyService:    policyService,
		Engine:           engine,
		HierarchyService: hierarchyService,
		CounterRepo:      counterRepo,
		OutboxRepo:       outboxRepo,
		SLAWindow:        slaWindowFromEnv(),
	})

	// --- Handlers ---
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	balanceHandler := balance.NewHandler(balanceService)
	policyHandler := policy.NewHandler(policyService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(50), 100))
	{
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		balance.RegisterRoutes(api, balanceHandler, rbacService)
		policy.RegisterRoutes(api, policyHandler, rbacService)
	}

	return nil
}

func slaWindowFromEnv() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("LEAVE_SLA_HOURS"))
	if err != nil || hours <= 0 {
		return 48 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}
