package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"crane-intelligence/backend/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("没有可导出的申请")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportFallbackRequests 导出人工估值申请为 Excel，status 为空时导出全部
	ExportFallbackRequests(ctx context.Context, status string) (*bytes.Buffer, string, error)
}

type exportService struct {
	lifecycle FallbackRequestService
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(lifecycle FallbackRequestService, logger *zap.Logger) ExportService {
	return &exportService{
		lifecycle: lifecycle,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// exportColumns 表头与取值，按列顺序
var exportColumns = []struct {
	title string
	width float64
	value func(r *model.FallbackRequest) interface{}
}{
	{"ID", 8, func(r *model.FallbackRequest) interface{} { return r.ID }},
	{"状态", 20, func(r *model.FallbackRequest) interface{} { return string(r.Status) }},
	{"提交人邮箱", 28, func(r *model.FallbackRequest) interface{} { return r.UserEmail }},
	{"制造商", 16, func(r *model.FallbackRequest) interface{} { return r.Manufacturer }},
	{"型号", 18, func(r *model.FallbackRequest) interface{} { return r.Model }},
	{"年份", 8, func(r *model.FallbackRequest) interface{} { return r.Year }},
	{"吨位", 10, func(r *model.FallbackRequest) interface{} { return r.CapacityTons }},
	{"类型", 16, func(r *model.FallbackRequest) interface{} { return r.CraneType }},
	{"工作小时", 12, func(r *model.FallbackRequest) interface{} { return r.OperatingHours }},
	{"地区", 16, func(r *model.FallbackRequest) interface{} { return r.Region }},
	{"车况", 12, func(r *model.FallbackRequest) interface{} { return r.Condition }},
	{"分析师", 20, func(r *model.FallbackRequest) interface{} { return r.AssignedAnalyst }},
	{"驳回原因", 30, func(r *model.FallbackRequest) interface{} { return r.RejectionReason }},
	{"关联报告", 10, func(r *model.FallbackRequest) interface{} {
		if r.LinkedFMVReportID == nil {
			return ""
		}
		return *r.LinkedFMVReportID
	}},
	{"创建时间", 20, func(r *model.FallbackRequest) interface{} { return formatTime(&r.CreatedAt) }},
	{"完成时间", 20, func(r *model.FallbackRequest) interface{} { return formatTime(r.CompletedAt) }},
	{"驳回时间", 20, func(r *model.FallbackRequest) interface{} { return formatTime(r.RejectedAt) }},
	{"取消时间", 20, func(r *model.FallbackRequest) interface{} { return formatTime(r.CancelledAt) }},
}

// ═══════════════════════════════════════════════════════════
// ExportFallbackRequests 导出申请为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单 Sheet，第 1 行标题，第 2 行表头，其后每行一条申请（created_at 倒序）
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportFallbackRequests(ctx context.Context, status string) (*bytes.Buffer, string, error) {
	reqs, err := s.lifecycle.GetAll(ctx, status)
	if err != nil {
		return nil, "", err
	}
	if len(reqs) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "人工估值申请"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := "人工估值申请"
	if status != "" {
		title += " (" + status + ")"
	}
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 导出于 %s", title, s.now().Format("2006-01-02 15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(exportColumns)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, c := range exportColumns {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, c.width)
		f.SetCellValue(sheetName, cell(col, 2), c.title)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(exportColumns)-1), 2), headerStyle)

	// 数据行
	for rowIdx := range reqs {
		row := rowIdx + 3
		for i, c := range exportColumns {
			f.SetCellValue(sheetName, cell(colName(i), row), c.value(&reqs[rowIdx]))
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("fallback_requests_%s.xlsx", s.now().Format("20060102"))
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

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
