package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bonus-wheel/internal/dto"
	"bonus-wheel/internal/service"
	"bonus-wheel/pkg/response"
)

// PrizeHandler 奖品目录 HTTP 处理器（管理端）
type PrizeHandler struct {
	prizeSvc service.PrizeService
}

// NewPrizeHandler 创建 PrizeHandler
func NewPrizeHandler(prizeSvc service.PrizeService) *PrizeHandler {
	return &PrizeHandler{prizeSvc: prizeSvc}
}

// ListPrizes 获取奖品列表
// GET /api/v1/admin/prizes
func (h *PrizeHandler) ListPrizes(c *gin.Context) {
	var req dto.PrizeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	prizes, err := h.prizeSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": prizes})
}

// CreatePrize 创建奖品
// POST /api/v1/admin/prizes
func (h *PrizeHandler) CreatePrize(c *gin.Context) {
	var req dto.CreatePrizeRequest
	if !bindJSON(c, &req) {
		return
	}

	prize, err := h.prizeSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handlePrizeError(c, err)
		return
	}

	response.Created(c, prize)
}

// UpdatePrize 更新奖品
// PUT /api/v1/admin/prizes/:id
func (h *PrizeHandler) UpdatePrize(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "奖品ID不能为空")
		return
	}

	var req dto.UpdatePrizeRequest
	if !bindJSON(c, &req) {
		return
	}

	prize, err := h.prizeSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handlePrizeError(c, err)
		return
	}

	response.OK(c, prize)
}

// handlePrizeError 统一处理奖品模块业务错误
func (h *PrizeHandler) handlePrizeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPrizeNotFound):
		response.NotFound(c, 20201, "奖品不存在")
	case errors.Is(err, service.ErrInvalidWeight):
		response.BadRequest(c, 20202, "奖品权重必须为非负数且最多 4 位小数")
	case errors.Is(err, service.ErrInvalidAmount):
		response.BadRequest(c, 20203, "奖品金额必须为非负数且最多 2 位小数")
	default:
		response.InternalError(c)
	}
}
