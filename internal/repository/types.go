package repository

import "time"

// PromotionListFilter 查询促销列表的过滤条件
type PromotionListFilter struct {
	Page         int
	PageSize     int
	Code         string
	Search       string
	Type         string
	BundleCode   string
	RuleID       uint
	IsActive     *bool
	ValidFrom    *time.Time
	ValidTo      *time.Time
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	ExcludeUsed  bool
	WithRule     bool
}

// PromotionUsageListFilter 查询促销使用记录列表的过滤条件
type PromotionUsageListFilter struct {
	Page        int
	PageSize    int
	PromotionID uint
	Code        string
	UserID      uint
	BundleID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// VoucherListFilter 查询代金券列表的过滤条件
type VoucherListFilter struct {
	Page        int
	PageSize    int
	Code        string
	PartnerID   uint
	IsUsed      *bool
	IsActive    *bool
	Exported    *bool
	ExpiredFrom *time.Time
	ExpiredTo   *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	WithPartner bool
}

// PartnerListFilter 查询合作伙伴列表的过滤条件
type PartnerListFilter struct {
	Page     int
	PageSize int
	Search   string
	IsActive *bool
}

// BundleListFilter 查询套餐列表的过滤条件
type BundleListFilter struct {
	Page       int
	PageSize   int
	Search     string
	Tag        string
	Country    string
	IsActive   *bool
	OnlyActive bool
	WithTags   bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	OrderNo     string
	UserID      uint
	BundleID    uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}

// EsimProfileListFilter 查询 eSIM Profile 列表的过滤条件
type EsimProfileListFilter struct {
	Page       int
	PageSize   int
	ICCID      string
	UserID     uint
	BundleID   uint
	Status     string
	SyncedFrom *time.Time
	SyncedTo   *time.Time
}

// FinancialDocumentListFilter 查询财务单据列表的过滤条件
type FinancialDocumentListFilter struct {
	Page       int
	PageSize   int
	DocumentNo string
	Type       string
	OrderID    uint
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	WithLines  bool
}
