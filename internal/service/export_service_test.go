package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportService_NoRecords(t *testing.T) {
	lifecycle, _ := setupFallbackService()
	svc := NewExportService(lifecycle, nopLogger())

	_, _, err := svc.ExportFallbackRequests(context.Background(), "")
	if !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("期望 ErrExportNoRecords，实际: %v", err)
	}
}

func TestExportService_InvalidFilter(t *testing.T) {
	lifecycle, _ := setupFallbackService()
	svc := NewExportService(lifecycle, nopLogger())

	_, _, err := svc.ExportFallbackRequests(context.Background(), "archived")
	if !errors.Is(err, ErrInvalidStatusFilter) {
		t.Errorf("期望 ErrInvalidStatusFilter，实际: %v", err)
	}
}

func TestExportService_ExportFallbackRequests(t *testing.T) {
	lifecycle, _ := setupFallbackService()
	first := mustCreate(t, lifecycle, "a@b.com", nil)
	mustCreate(t, lifecycle, "c@d.com", nil)
	mustTransition(t, lifecycle, first.ID, transitionTo("in_review"))
	svc := NewExportService(lifecycle, nopLogger())

	buf, filename, err := svc.ExportFallbackRequests(context.Background(), "")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("无法解析导出文件: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("人工估值申请")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	// 标题 + 表头 + 2 条数据
	if len(rows) != 4 {
		t.Fatalf("期望 4 行，实际 %d", len(rows))
	}
	if rows[1][0] != "ID" || rows[1][1] != "状态" {
		t.Errorf("表头错误: %v", rows[1])
	}
	// 倒序：第二条申请在前
	if rows[2][2] != "c@d.com" || rows[3][1] != "in_review" {
		t.Errorf("数据行错误: %v / %v", rows[2], rows[3])
	}
}
