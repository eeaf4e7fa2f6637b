package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bonus-wheel/internal/dto"
	"bonus-wheel/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInvalidRange = errors.New("导出时间范围无效")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// exportRowLimit 单次导出的最大行数
const exportRowLimit = 50000

// ExportService 导出业务接口
//
// 将兑换码台账导出为 Excel (.xlsx)，供运营对账使用。
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	ExportIssuedCodes(ctx context.Context, req *dto.ExportIssuedCodesRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportIssuedCodes — 导出兑换码台账
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "兑换码台账"
//   - 表头：兑换码 | 奖品 | 金额 | 持有人 | 发放时间 | 状态 | 核销时间 | 核销人
//   - 最后一行为合计：已发放数、已核销数、已核销金额

func (s *exportService) ExportIssuedCodes(ctx context.Context, req *dto.ExportIssuedCodesRequest) (*bytes.Buffer, string, error) {
	// 1. 解析筛选条件（to 为包含当天的日期）
	filter := repository.IssuedCodeFilter{
		PrizeID: req.PrizeID,
		Used:    req.Used,
		Limit:   exportRowLimit,
	}
	if req.From != "" {
		from, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return nil, "", ErrExportInvalidRange
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return nil, "", ErrExportInvalidRange
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, "", ErrExportInvalidRange
	}

	// 2. 查询台账
	codes, err := s.repo.IssuedCode.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询兑换码台账失败", zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "兑换码台账"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "B", 18)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 20)
	f.SetColWidth(sheetName, "E", "E", 22)
	f.SetColWidth(sheetName, "F", "F", 10)
	f.SetColWidth(sheetName, "G", "G", 22)
	f.SetColWidth(sheetName, "H", "H", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"兑换码", "奖品", "金额", "持有人", "发放时间", "状态", "核销时间", "核销人"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	usedCount := 0
	usedAmount := 0.0
	for _, c := range codes {
		amount, _ := c.PrizeAmount.Float64()
		f.SetCellValue(sheetName, cell("A", row), c.Code)
		f.SetCellValue(sheetName, cell("B", row), c.PrizeName)
		f.SetCellValue(sheetName, cell("C", row), amount)
		f.SetCellValue(sheetName, cell("D", row), deref(c.OwnerRef))
		f.SetCellValue(sheetName, cell("E", row), c.IssuedAt.Format(time.RFC3339))
		if c.Used {
			usedCount++
			usedAmount += amount
			f.SetCellValue(sheetName, cell("F", row), "已核销")
			if c.UsedAt != nil {
				f.SetCellValue(sheetName, cell("G", row), c.UsedAt.Format(time.RFC3339))
			}
			f.SetCellValue(sheetName, cell("H", row), deref(c.RedeemedBy))
		} else {
			f.SetCellValue(sheetName, cell("F", row), "未核销")
		}
		row++
	}

	// 合计行
	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell("B", row), fmt.Sprintf("发放 %d / 核销 %d", len(codes), usedCount))
	f.SetCellValue(sheetName, cell("C", row), usedAmount)
	f.SetCellStyle(sheetName, cell("A", row), cell("H", row), headerStyle)

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("兑换码台账_%s.xlsx", time.Now().UTC().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
