package service

import "errors"

// 促销相关错误
var (
	ErrPromotionInvalid      = errors.New("promotion invalid")
	ErrPromotionNotFound     = errors.New("promotion not found")
	ErrPromotionCodeExists   = errors.New("promotion code exists")
	ErrPromotionCreateFailed = errors.New("promotion create failed")
	ErrPromotionUpdateFailed = errors.New("promotion update failed")
	ErrPromotionDeleteFailed = errors.New("promotion delete failed")
	ErrPromotionFetchFailed  = errors.New("promotion fetch failed")
	ErrPromotionCodeSpace    = errors.New("promotion code space exhausted")
)

// 促销规则相关错误
var (
	ErrPromotionRuleInvalid      = errors.New("promotion rule invalid")
	ErrPromotionRuleNotFound     = errors.New("promotion rule not found")
	ErrPromotionRuleInUse        = errors.New("promotion rule in use")
	ErrPromotionRuleCreateFailed = errors.New("promotion rule create failed")
	ErrPromotionRuleUpdateFailed = errors.New("promotion rule update failed")
	ErrPromotionRuleDeleteFailed = errors.New("promotion rule delete failed")
	ErrPromotionRuleFetchFailed  = errors.New("promotion rule fetch failed")
)

// 代金券相关错误
var (
	ErrVoucherInvalid      = errors.New("voucher invalid")
	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherCreateFailed = errors.New("voucher create failed")
	ErrVoucherUpdateFailed = errors.New("voucher update failed")
	ErrVoucherDeleteFailed = errors.New("voucher delete failed")
	ErrVoucherFetchFailed  = errors.New("voucher fetch failed")
	ErrVoucherCodeSpace    = errors.New("voucher code space exhausted")
)

// 合作伙伴相关错误
var (
	ErrPartnerInvalid      = errors.New("partner invalid")
	ErrPartnerNotFound     = errors.New("partner not found")
	ErrPartnerPrefixExists = errors.New("partner prefix exists")
	ErrPartnerCreateFailed = errors.New("partner create failed")
	ErrPartnerUpdateFailed = errors.New("partner update failed")
	ErrPartnerDeleteFailed = errors.New("partner delete failed")
	ErrPartnerFetchFailed  = errors.New("partner fetch failed")
	ErrPartnerHasVouchers  = errors.New("partner has vouchers")
)

// 套餐相关错误
var (
	ErrBundleInvalid      = errors.New("bundle invalid")
	ErrBundleNotFound     = errors.New("bundle not found")
	ErrBundleCodeExists   = errors.New("bundle code exists")
	ErrBundleCreateFailed = errors.New("bundle create failed")
	ErrBundleUpdateFailed = errors.New("bundle update failed")
	ErrBundleDeleteFailed = errors.New("bundle delete failed")
	ErrBundleFetchFailed  = errors.New("bundle fetch failed")
)

// 订单相关错误
var (
	ErrOrderInvalid         = errors.New("order invalid")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderFetchFailed     = errors.New("order fetch failed")
	ErrOrderNotRefundable   = errors.New("order not refundable")
	ErrOrderRefundFailed    = errors.New("order refund failed")
	ErrOrderAlreadyRefunded = errors.New("order already refunded")
)

// 用户相关错误
var (
	ErrUserInvalid      = errors.New("user invalid")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserEmailExists  = errors.New("user email exists")
	ErrUserCreateFailed = errors.New("user create failed")
	ErrUserUpdateFailed = errors.New("user update failed")
	ErrUserFetchFailed  = errors.New("user fetch failed")
)

// eSIM Profile 相关错误
var (
	ErrEsimProfileInvalid     = errors.New("esim profile invalid")
	ErrEsimProfileNotFound    = errors.New("esim profile not found")
	ErrEsimProfileFetchFailed = errors.New("esim profile fetch failed")
	ErrEsimProfileSyncFailed  = errors.New("esim profile sync failed")
)

// 财务单据相关错误
var (
	ErrFinancialDocInvalid       = errors.New("financial document invalid")
	ErrFinancialDocNotFound      = errors.New("financial document not found")
	ErrFinancialDocCreateFailed  = errors.New("financial document create failed")
	ErrFinancialDocFetchFailed   = errors.New("financial document fetch failed")
	ErrFinancialDocDeliverFailed = errors.New("financial document deliver failed")
)

// 批量选择相关错误
var (
	ErrSelectionInvalid = errors.New("selection invalid")
	ErrSelectionEmpty   = errors.New("selection empty")
)

// 登录鉴权相关错误
var (
	ErrLoginFailed          = errors.New("login failed")
	ErrAccountLocked        = errors.New("account locked")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrPasswordPolicyFailed = errors.New("password policy failed")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrAdminExists          = errors.New("admin exists")
)
