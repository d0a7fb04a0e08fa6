package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/esim-backoffice/internal/authz"
	"github.com/esim-backoffice/internal/cache"
	"github.com/esim-backoffice/internal/config"
	adminhandlers "github.com/esim-backoffice/internal/http/handlers/admin"
	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/logger"
	"github.com/esim-backoffice/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "esim"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIP), adminHandler.AdminLogin)
			admin.GET("/captcha", adminHandler.GetLoginCaptcha)

			// 需要鉴权的接口
			authorized := admin.Use(
				AdminAuthMiddleware(cfg.JWT.SecretKey, cfg.Security.AdminAPIKey, c.AdminRepo),
				AdminRBACMiddleware(c.AuthzService),
			)
			{
				authorized.GET("/profile", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)

				// 促销管理
				authorized.GET("/promotions", adminHandler.GetPromotions)
				authorized.POST("/promotions", adminHandler.CreatePromotion)
				authorized.GET("/promotions/:id", adminHandler.GetPromotion)
				authorized.PUT("/promotions/:id", adminHandler.UpdatePromotion)
				authorized.DELETE("/promotions/:id", adminHandler.DeletePromotion)
				authorized.POST("/promotions/bulk-generate", adminHandler.BulkGeneratePromotions)
				authorized.POST("/promotions/bulk-update", adminHandler.BulkUpdatePromotionValidity)
				authorized.POST("/promotions/bulk-expire", adminHandler.BulkExpirePromotions)
				authorized.POST("/promotions/export", adminHandler.ExportPromotions)
				authorized.GET("/promotion-usages", adminHandler.GetPromotionUsages)

				// 促销规则
				authorized.GET("/promotion-rules", adminHandler.GetPromotionRules)
				authorized.POST("/promotion-rules", adminHandler.CreatePromotionRule)
				authorized.GET("/promotion-rules/actions", adminHandler.GetPromotionRuleActions)
				authorized.GET("/promotion-rules/events", adminHandler.GetPromotionRuleEvents)
				authorized.GET("/promotion-rules/:id", adminHandler.GetPromotionRule)
				authorized.PUT("/promotion-rules/:id", adminHandler.UpdatePromotionRule)
				authorized.DELETE("/promotion-rules/:id", adminHandler.DeletePromotionRule)

				// 代金券管理
				authorized.GET("/vouchers", adminHandler.GetVouchers)
				authorized.GET("/vouchers/:id", adminHandler.GetVoucher)
				authorized.POST("/vouchers/bulk-generate", adminHandler.BulkGenerateVouchers)
				authorized.POST("/vouchers/bulk-expire", adminHandler.BulkExpireVouchers)
				authorized.POST("/vouchers/bulk-delete", adminHandler.BulkDeleteVouchers)
				authorized.POST("/vouchers/export", adminHandler.ExportVouchers)

				// 合作伙伴
				authorized.GET("/partners", adminHandler.GetPartners)
				authorized.POST("/partners", adminHandler.CreatePartner)
				authorized.GET("/partners/:id", adminHandler.GetPartner)
				authorized.PUT("/partners/:id", adminHandler.UpdatePartner)
				authorized.DELETE("/partners/:id", adminHandler.DeletePartner)

				// 套餐管理
				authorized.GET("/bundles", adminHandler.GetBundles)
				authorized.POST("/bundles", adminHandler.CreateBundle)
				authorized.GET("/bundles/tags", adminHandler.GetBundleTags)
				authorized.POST("/bundles/bulk-price", adminHandler.BulkUpdateBundlePrice)
				authorized.POST("/bundles/export", adminHandler.ExportBundles)
				authorized.POST("/bundles/cache-rebuild", adminHandler.RebuildBundleCache)
				authorized.GET("/bundles/:id", adminHandler.GetBundle)
				authorized.PUT("/bundles/:id", adminHandler.UpdateBundle)
				authorized.DELETE("/bundles/:id", adminHandler.DeleteBundle)

				// 订单管理
				authorized.GET("/orders", adminHandler.GetOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/refund", adminHandler.RefundOrder)

				// 用户管理
				authorized.GET("/users", adminHandler.GetUsers)
				authorized.PUT("/users/batch-status", adminHandler.BulkUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.PUT("/users/:id", adminHandler.UpdateUser)

				// eSIM Profile
				authorized.GET("/esim-profiles", adminHandler.GetEsimProfiles)
				authorized.GET("/esim-profiles/:id", adminHandler.GetEsimProfile)
				authorized.POST("/esim-profiles/:id/sync", adminHandler.SyncEsimProfile)

				// 财务单据
				authorized.GET("/financial-documents", adminHandler.GetFinancialDocuments)
				authorized.POST("/financial-documents/export", adminHandler.ExportFinancialDocuments)
				authorized.GET("/financial-documents/:id", adminHandler.GetFinancialDocument)
				authorized.POST("/financial-documents/:id/resend", adminHandler.ResendFinancialDocument)

				// 币种汇率
				authorized.GET("/currencies", adminHandler.GetCurrencies)
				authorized.PUT("/currencies", adminHandler.UpsertCurrency)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" || item.Path == "/api/v1/admin/captcha" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
