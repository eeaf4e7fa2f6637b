package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bonus-wheel/internal/dto"
	"bonus-wheel/internal/service"
	"bonus-wheel/pkg/response"
)

// WheelHandler 转盘模块 HTTP 处理器
type WheelHandler struct {
	wheelSvc service.WheelService
}

// NewWheelHandler 创建 WheelHandler
func NewWheelHandler(wheelSvc service.WheelService) *WheelHandler {
	return &WheelHandler{wheelSvc: wheelSvc}
}

// Spin 抽奖
// POST /api/v1/wheel/spin
func (h *WheelHandler) Spin(c *gin.Context) {
	result, err := h.wheelSvc.Spin(c.Request.Context(), OptionalUserID(c))
	if err != nil {
		h.handleWheelError(c, err)
		return
	}

	response.Created(c, result)
}

// Segments 转盘扇区
// GET /api/v1/wheel/segments
func (h *WheelHandler) Segments(c *gin.Context) {
	segments, err := h.wheelSvc.Segments(c.Request.Context())
	if err != nil {
		h.handleWheelError(c, err)
		return
	}

	response.OK(c, gin.H{"list": segments})
}

// Redeem 核销兑换码
// POST /api/v1/wheel/redeem
func (h *WheelHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if !bindJSON(c, &req) {
		return
	}

	redeemedBy := "api:anonymous"
	if uid := OptionalUserID(c); uid != nil {
		redeemedBy = "api:" + *uid
	}

	result, err := h.wheelSvc.Redeem(c.Request.Context(), req.Code, redeemedBy)
	if err != nil {
		h.handleWheelError(c, err)
		return
	}

	switch result.Status {
	case dto.RedeemStatusRedeemed:
		response.OK(c, result)
	case dto.RedeemStatusAlreadyUsed:
		response.ErrorWithData(c, http.StatusConflict, 20102, "兑换码已被使用", result)
	default:
		response.NotFound(c, 20101, "兑换码不存在")
	}
}

// LookupCode 查询兑换码
// GET /api/v1/wheel/codes/:code
func (h *WheelHandler) LookupCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "兑换码不能为空")
		return
	}

	result, err := h.wheelSvc.Lookup(c.Request.Context(), code)
	if err != nil {
		h.handleWheelError(c, err)
		return
	}

	response.OK(c, result)
}

// handleWheelError 统一处理转盘模块业务错误
func (h *WheelHandler) handleWheelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoEligiblePrizes):
		response.Conflict(c, 20001, "奖品暂不可用")
	case errors.Is(err, service.ErrStorageUnavailable):
		response.ServiceUnavailable(c, 20002, "服务暂不可用，请稍后重试")
	case errors.Is(err, service.ErrCodeNotFound):
		response.NotFound(c, 20101, "兑换码不存在")
	default:
		response.InternalError(c)
	}
}
