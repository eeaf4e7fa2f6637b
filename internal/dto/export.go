package dto

// ExportIssuedCodesRequest 兑换码台账导出参数
type ExportIssuedCodesRequest struct {
	PrizeID string `form:"prize_id" binding:"omitempty,uuid"`
	Used    *bool  `form:"used"`
	From    string `form:"from"     binding:"omitempty,datetime=2006-01-02"`
	To      string `form:"to"       binding:"omitempty,datetime=2006-01-02"`
}
