package models

import (
	"time"

	"gorm.io/gorm"
)

// FinancialDocument 财务单据表（发票/红冲单）
type FinancialDocument struct {
	ID               uint                    `gorm:"primarykey" json:"id"`                                     // 主键
	DocumentNo       string                  `gorm:"type:varchar(48);uniqueIndex;not null" json:"document_no"` // 单据号
	Type             string                  `gorm:"type:varchar(24);index;not null" json:"type"`              // 类型（invoice/credit_note）
	OrderID          *uint                   `gorm:"index" json:"order_id"`                                    // 关联订单ID
	RelatedDocID     *uint                   `gorm:"index" json:"related_doc_id"`                              // 红冲单对应的发票ID
	SupplierName     string                  `gorm:"type:varchar(160);not null" json:"supplier_name"`          // 开票方名称
	SupplierVAT      string                  `gorm:"type:varchar(48);default:''" json:"supplier_vat"`          // 开票方税号
	SupplierAddress  string                  `gorm:"type:text" json:"supplier_address"`                        // 开票方地址
	BeneficiaryName  string                  `gorm:"type:varchar(160);not null" json:"beneficiary_name"`       // 受票方名称
	BeneficiaryEmail string                  `gorm:"type:varchar(160);default:''" json:"beneficiary_email"`    // 受票方邮箱
	BeneficiaryVAT   string                  `gorm:"type:varchar(48);default:''" json:"beneficiary_vat"`       // 受票方税号
	NetAmount        Money                   `gorm:"type:decimal(20,2);not null" json:"net_amount"`            // 不含税金额
	VATAmount        Money                   `gorm:"type:decimal(20,2);not null" json:"vat_amount"`            // 税额
	TotalAmount      Money                   `gorm:"type:decimal(20,2);not null" json:"total_amount"`          // 含税金额
	Currency         string                  `gorm:"type:varchar(16);not null;default:'EUR'" json:"currency"`  // 币种
	IssuedAt         time.Time               `gorm:"index;not null" json:"issued_at"`                          // 开具时间
	CreatedAt        time.Time               `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt        time.Time               `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt        gorm.DeletedAt          `gorm:"index" json:"-"`                                           // 软删除时间
	Lines            []FinancialDocumentLine `gorm:"foreignKey:DocumentID" json:"lines,omitempty"`             // 明细行
}

// TableName 指定表名
func (FinancialDocument) TableName() string {
	return "financial_documents"
}

// FinancialDocumentLine 财务单据明细行
type FinancialDocumentLine struct {
	ID          uint   `gorm:"primarykey" json:"id"`                          // 主键
	DocumentID  uint   `gorm:"index;not null" json:"document_id"`             // 单据ID
	Description string `gorm:"type:text;not null" json:"description"`         // 描述
	Quantity    int    `gorm:"not null;default:1" json:"quantity"`            // 数量
	UnitPrice   Money  `gorm:"type:decimal(20,2);not null" json:"unit_price"` // 单价
	VATRate     int    `gorm:"not null;default:0" json:"vat_rate"`            // 税率（百分比）
}

// TableName 指定表名
func (FinancialDocumentLine) TableName() string {
	return "financial_document_lines"
}
