package handler

import "bonus-wheel/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Wheel  *WheelHandler
	Prize  *PrizeHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Wheel:  NewWheelHandler(svc.Wheel),
		Prize:  NewPrizeHandler(svc.Prize),
		Export: NewExportHandler(svc.Export),
	}
}
