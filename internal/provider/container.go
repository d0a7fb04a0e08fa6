package provider

import (
	"github.com/esim-backoffice/internal/authz"
	"github.com/esim-backoffice/internal/cache"
	"github.com/esim-backoffice/internal/config"
	"github.com/esim-backoffice/internal/logger"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/queue"
	"github.com/esim-backoffice/internal/repository"
	"github.com/esim-backoffice/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	PromotionRepo      repository.PromotionRepository
	PromotionRuleRepo  repository.PromotionRuleRepository
	PromotionUsageRepo repository.PromotionUsageRepository
	VoucherRepo        repository.VoucherRepository
	PartnerRepo        repository.PartnerRepository
	BundleRepo         repository.BundleRepository
	OrderRepo          repository.OrderRepository
	EsimProfileRepo    repository.EsimProfileRepository
	FinancialDocRepo   repository.FinancialDocumentRepository
	CurrencyRepo       repository.CurrencyRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	CaptchaService        *service.CaptchaService
	PromotionAdminService *service.PromotionAdminService
	PromotionRuleService  *service.PromotionRuleService
	PromotionUsageService *service.PromotionUsageService
	VoucherService        *service.VoucherService
	PartnerService        *service.PartnerService
	BundleAdminService    *service.BundleAdminService
	OrderAdminService     *service.OrderAdminService
	UserAdminService      *service.UserAdminService
	EsimService           *service.EsimService
	FinancialService      *service.FinancialService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.PromotionRuleRepo = repository.NewPromotionRuleRepository(db)
	c.PromotionUsageRepo = repository.NewPromotionUsageRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.PartnerRepo = repository.NewPartnerRepository(db)
	c.BundleRepo = repository.NewBundleRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.EsimProfileRepo = repository.NewEsimProfileRepository(db)
	c.FinancialDocRepo = repository.NewFinancialDocumentRepository(db)
	c.CurrencyRepo = repository.NewCurrencyRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.PromotionAdminService = service.NewPromotionAdminService(c.PromotionRepo, c.PromotionRuleRepo, c.BundleRepo)
	c.PromotionRuleService = service.NewPromotionRuleService(c.PromotionRuleRepo)
	c.PromotionUsageService = service.NewPromotionUsageService(c.PromotionUsageRepo, c.PromotionRepo)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.PartnerRepo)
	c.PartnerService = service.NewPartnerService(c.PartnerRepo)
	c.BundleAdminService = service.NewBundleAdminService(c.BundleRepo, c.QueueClient)
	c.FinancialService = service.NewFinancialService(c.FinancialDocRepo, c.QueueClient, NewMailerClient(c.Config.Billing), service.SupplierInfo{
		Name:    c.Config.Billing.SupplierName,
		VAT:     c.Config.Billing.SupplierVAT,
		Address: c.Config.Billing.SupplierAddress,
	})
	c.OrderAdminService = service.NewOrderAdminService(c.OrderRepo, c.FinancialService)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo)
	c.EsimService = service.NewEsimService(c.EsimProfileRepo, c.QueueClient, NewConsumptionClient(c.Config.Esim))
}
