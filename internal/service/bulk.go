package service

// BulkError 批量操作中单条记录的失败信息
type BulkError struct {
	ID     uint   `json:"id,omitempty"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// BulkResult 批量操作结果汇总
type BulkResult struct {
	Successful     int64       `json:"successful"`
	Failed         int64       `json:"failed"`
	TotalProcessed int64       `json:"total_processed"`
	Errors         []BulkError `json:"errors"`
}

// AddError 记录一条失败并累加计数
func (r *BulkResult) AddError(err BulkError) {
	r.Failed++
	r.TotalProcessed++
	r.Errors = append(r.Errors, err)
}

// AddSuccess 累加成功计数
func (r *BulkResult) AddSuccess(n int64) {
	r.Successful += n
	r.TotalProcessed += n
}
