package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bonus-wheel/internal/api/middleware"
	"bonus-wheel/internal/dto"
	"bonus-wheel/internal/service"
	"bonus-wheel/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock WheelService ──

type mockWheelService struct {
	spinResult     *dto.SpinResponse
	spinErr        error
	spinOwner      *string
	segmentsResult []dto.SegmentResponse
	segmentsErr    error
	redeemResult   *dto.RedeemResult
	redeemErr      error
	redeemedBy     string
	lookupResult   *dto.CodeResponse
	lookupErr      error
}

func (m *mockWheelService) Spin(_ context.Context, ownerRef *string) (*dto.SpinResponse, error) {
	m.spinOwner = ownerRef
	return m.spinResult, m.spinErr
}
func (m *mockWheelService) Segments(_ context.Context) ([]dto.SegmentResponse, error) {
	return m.segmentsResult, m.segmentsErr
}
func (m *mockWheelService) Redeem(_ context.Context, _ string, redeemedBy string) (*dto.RedeemResult, error) {
	m.redeemedBy = redeemedBy
	return m.redeemResult, m.redeemErr
}
func (m *mockWheelService) Lookup(_ context.Context, _ string) (*dto.CodeResponse, error) {
	return m.lookupResult, m.lookupErr
}

// ── Mock PrizeService ──

type mockPrizeService struct {
	createResult *dto.PrizeResponse
	createErr    error
	getResult    *dto.PrizeResponse
	getErr       error
	listResult   []dto.PrizeResponse
	listErr      error
	updateResult *dto.PrizeResponse
	updateErr    error
}

func (m *mockPrizeService) Create(_ context.Context, _ *dto.CreatePrizeRequest) (*dto.PrizeResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockPrizeService) GetByID(_ context.Context, _ string) (*dto.PrizeResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockPrizeService) List(_ context.Context, _ *dto.PrizeListRequest) ([]dto.PrizeResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockPrizeService) Update(_ context.Context, _ string, _ *dto.UpdatePrizeRequest) (*dto.PrizeResponse, error) {
	return m.updateResult, m.updateErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportIssuedCodes(_ context.Context, _ *dto.ExportIssuedCodesRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() *gin.Engine {
	return gin.New()
}

// withUser 模拟 OptionalJWT 注入的身份
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v, body: %s", err, w.Body.String())
	}
	return resp
}

func doRequest(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func samplePrize() dto.PrizeSnapshot {
	return dto.PrizeSnapshot{ID: "prize-b", Name: "B", Amount: decimal.RequireFromString("50")}
}

// ═══════════════════════════════════════════════════════════
// WheelHandler
// ═══════════════════════════════════════════════════════════

func TestWheelHandler_Spin(t *testing.T) {
	svc := &mockWheelService{spinResult: &dto.SpinResponse{
		Prize:        samplePrize(),
		SegmentIndex: 1,
		Code:         "AbCdEfGh12345678",
		ClaimLink:    "https://t.me/bonus_wheel_bot?start=AbCdEfGh12345678",
		IssuedAt:     time.Now().UTC(),
	}}
	h := NewWheelHandler(svc)

	r := setupGin()
	r.POST("/spin", h.Spin)
	w := doRequest(r, http.MethodPost, "/spin", nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	data := resp.Data.(map[string]interface{})
	if data["code"] != "AbCdEfGh12345678" || data["claim_link"] == "" {
		t.Errorf("响应内容不符: %v", data)
	}
	if svc.spinOwner != nil {
		t.Errorf("匿名请求 owner 应为 nil")
	}
}

func TestWheelHandler_Spin_WithUser(t *testing.T) {
	svc := &mockWheelService{spinResult: &dto.SpinResponse{Prize: samplePrize()}}
	h := NewWheelHandler(svc)

	r := setupGin()
	r.POST("/spin", withUser("user-9"), h.Spin)
	doRequest(r, http.MethodPost, "/spin", nil)

	if svc.spinOwner == nil || *svc.spinOwner != "user-9" {
		t.Errorf("owner 应取自认证身份，实际: %v", svc.spinOwner)
	}
}

func TestWheelHandler_Spin_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"NoPrizes", service.ErrNoEligiblePrizes, http.StatusConflict, 20001},
		{"Storage", fmt.Errorf("%w: %w", service.ErrStorageUnavailable, errors.New("down")), http.StatusServiceUnavailable, 20002},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWheelHandler(&mockWheelService{spinErr: tt.err})
			r := setupGin()
			r.POST("/spin", h.Spin)
			w := doRequest(r, http.MethodPost, "/spin", nil)

			if w.Code != tt.status {
				t.Fatalf("期望 %d，实际 %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("期望业务码 %d，实际 %d", tt.code, resp.Code)
			}
		})
	}
}

func TestWheelHandler_Segments(t *testing.T) {
	h := NewWheelHandler(&mockWheelService{segmentsResult: []dto.SegmentResponse{
		{ID: "a", Name: "A", ChancePercent: decimal.RequireFromString("50")},
		{ID: "b", Name: "B", ChancePercent: decimal.RequireFromString("50")},
	}})
	r := setupGin()
	r.GET("/segments", h.Segments)
	w := doRequest(r, http.MethodGet, "/segments", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	data := parseResponse(t, w).Data.(map[string]interface{})
	if list := data["list"].([]interface{}); len(list) != 2 {
		t.Errorf("期望 2 个扇区，实际 %d", len(list))
	}
}

func TestWheelHandler_Redeem(t *testing.T) {
	prize := samplePrize()
	usedAt := time.Now().UTC()

	tests := []struct {
		name   string
		result *dto.RedeemResult
		status int
		code   int
	}{
		{"Redeemed", &dto.RedeemResult{Status: dto.RedeemStatusRedeemed, Prize: &prize, UsedAt: &usedAt}, http.StatusOK, 0},
		{"NotFound", &dto.RedeemResult{Status: dto.RedeemStatusNotFound}, http.StatusNotFound, 20101},
		{"AlreadyUsed", &dto.RedeemResult{Status: dto.RedeemStatusAlreadyUsed, Prize: &prize, UsedAt: &usedAt}, http.StatusConflict, 20102},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWheelHandler(&mockWheelService{redeemResult: tt.result})
			r := setupGin()
			r.POST("/redeem", h.Redeem)
			w := doRequest(r, http.MethodPost, "/redeem", jsonBody(map[string]string{"code": "AbCdEfGh12345678"}))

			if w.Code != tt.status {
				t.Fatalf("期望 %d，实际 %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Code != tt.code {
				t.Errorf("期望业务码 %d，实际 %d", tt.code, resp.Code)
			}
			if tt.result.Status == dto.RedeemStatusAlreadyUsed {
				data := resp.Data.(map[string]interface{})
				if data["prize"] == nil {
					t.Error("already_used 响应应携带原奖品")
				}
			}
		})
	}
}

func TestWheelHandler_Redeem_Validation(t *testing.T) {
	h := NewWheelHandler(&mockWheelService{})
	r := setupGin()
	r.POST("/redeem", h.Redeem)
	w := doRequest(r, http.MethodPost, "/redeem", jsonBody(map[string]string{}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 code 期望 400，实际 %d", w.Code)
	}
}

func TestWheelHandler_Redeem_RedeemedBy(t *testing.T) {
	svc := &mockWheelService{redeemResult: &dto.RedeemResult{Status: dto.RedeemStatusNotFound}}
	h := NewWheelHandler(svc)
	r := setupGin()
	r.POST("/redeem", withUser("user-5"), h.Redeem)
	doRequest(r, http.MethodPost, "/redeem", jsonBody(map[string]string{"code": "x"}))

	if svc.redeemedBy != "api:user-5" {
		t.Errorf("redeemed_by 应为 api:user-5，实际 %s", svc.redeemedBy)
	}
}

func TestWheelHandler_Redeem_StorageError(t *testing.T) {
	h := NewWheelHandler(&mockWheelService{redeemErr: service.ErrStorageUnavailable})
	r := setupGin()
	r.POST("/redeem", h.Redeem)
	w := doRequest(r, http.MethodPost, "/redeem", jsonBody(map[string]string{"code": "x"}))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("期望 503，实际 %d", w.Code)
	}
}

func TestWheelHandler_LookupCode(t *testing.T) {
	h := NewWheelHandler(&mockWheelService{lookupErr: service.ErrCodeNotFound})
	r := setupGin()
	r.GET("/codes/:code", h.LookupCode)
	w := doRequest(r, http.MethodGet, "/codes/unknown", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}

	h = NewWheelHandler(&mockWheelService{lookupResult: &dto.CodeResponse{Code: "c", Prize: samplePrize()}})
	r = setupGin()
	r.GET("/codes/:code", h.LookupCode)
	w = doRequest(r, http.MethodGet, "/codes/c", nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PrizeHandler
// ═══════════════════════════════════════════════════════════

func TestPrizeHandler_CreatePrize(t *testing.T) {
	h := NewPrizeHandler(&mockPrizeService{createResult: &dto.PrizeResponse{ID: "p1", Name: "A"}})
	r := setupGin()
	r.POST("/prizes", h.CreatePrize)

	w := doRequest(r, http.MethodPost, "/prizes", jsonBody(map[string]interface{}{
		"name": "A", "amount": "10.00", "weight": 50,
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/prizes", jsonBody(map[string]interface{}{"name": "A"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 weight/amount 期望 400，实际 %d", w.Code)
	}
}

func TestPrizeHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"NotFound", service.ErrPrizeNotFound, http.StatusNotFound, 20201},
		{"InvalidWeight", service.ErrInvalidWeight, http.StatusBadRequest, 20202},
		{"InvalidAmount", service.ErrInvalidAmount, http.StatusBadRequest, 20203},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPrizeHandler(&mockPrizeService{updateErr: tt.err})
			r := setupGin()
			r.PUT("/prizes/:id", h.UpdatePrize)
			w := doRequest(r, http.MethodPut, "/prizes/p1", jsonBody(map[string]interface{}{"weight": "-1"}))

			if w.Code != tt.status {
				t.Fatalf("期望 %d，实际 %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("期望业务码 %d，实际 %d", tt.code, resp.Code)
			}
		})
	}
}

func TestPrizeHandler_ListPrizes(t *testing.T) {
	h := NewPrizeHandler(&mockPrizeService{listResult: []dto.PrizeResponse{{ID: "p1"}}})
	r := setupGin()
	r.GET("/prizes", h.ListPrizes)
	w := doRequest(r, http.MethodGet, "/prizes?include_inactive=true", nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportIssuedCodes(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "兑换码台账_20260101.xlsx"})
	r := setupGin()
	r.GET("/export", h.ExportIssuedCodes)
	w := doRequest(r, http.MethodGet, "/export?used=true", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("缺少 Content-Disposition")
	}
}

func TestExportHandler_BadQuery(t *testing.T) {
	h := NewExportHandler(&mockExportService{})
	r := setupGin()
	r.GET("/export", h.ExportIssuedCodes)
	w := doRequest(r, http.MethodGet, "/export?from=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法日期期望 400，实际 %d", w.Code)
	}

	h = NewExportHandler(&mockExportService{err: service.ErrExportInvalidRange})
	r = setupGin()
	r.GET("/export", h.ExportIssuedCodes)
	w = doRequest(r, http.MethodGet, "/export", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("时间范围无效期望 400，实际 %d", w.Code)
	}
}
