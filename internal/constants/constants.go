package constants

// 促销码类型常量
const (
	PromotionTypePromotion = "PROMOTION"
	PromotionTypeReferral  = "REFERRAL"
)

// 促销规则受益方常量
const (
	BeneficiaryReferred = 0
	BeneficiaryReferrer = 1
	BeneficiaryBoth     = 2
)

// 促销码生成约束常量
const (
	PromoCodeMinLength    = 6
	PromoCodeMaxLength    = 20
	PromoBulkMaxCount     = 10000
	PromoCodeCharset      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	PromoCodeInputCharset = PromoCodeCharset + "-"
	PromoInsertBatchSize  = 500
	PromoCollisionRetries = 5
)

// 代金券常量
const (
	VoucherCodeLength   = 12
	VoucherCodeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	VoucherBulkMaxCount = 10000
	PartnerPrefixLength = 2
	VoucherInsertBatch  = 500
)

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
	OrderStatusRefunded  = "refunded"
)

// eSIM Profile 状态常量
const (
	EsimProfileStatusReleased  = "released"
	EsimProfileStatusInstalled = "installed"
	EsimProfileStatusEnabled   = "enabled"
	EsimProfileStatusDisabled  = "disabled"
	EsimProfileStatusDeleted   = "deleted"
)

// 财务单据类型常量
const (
	FinancialDocTypeInvoice    = "invoice"
	FinancialDocTypeCreditNote = "credit_note"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 批量价格调整方式常量
const (
	BulkPriceModeFixed   = "fixed"
	BulkPriceModePercent = "percent"
)

// 队列常量
const (
	QueueDefault              = "default"
	TaskBundleCacheRebuild    = "bundle:cache_rebuild"
	TaskEsimConsumptionSync   = "esim:consumption_sync"
	TaskFinancialDocResend    = "financial:document_resend"
	TaskBundleTagRefresh      = "bundle:tag_refresh"
	ConsumptionSyncBatchLimit = 200
)

// 缓存键常量
const (
	RedisPrefixDefault    = "esim"
	CacheKeyBundleCatalog = "bundle:catalog"
	CacheKeyBundleTags    = "bundle:tags"
)

// 导出相关常量
const (
	ExportFormatCSV    = "csv"
	ExportFormatTXT    = "txt"
	ExportStreamChunk  = 500
	FinancialExportMax = 100000
)

// 币种常量
const (
	CurrencyDefault = "EUR"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)
