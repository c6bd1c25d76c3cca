package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *mockTimeRecordRepo) {
	repo, _, _, recordRepo := testRepository()
	svc := NewExportService(testConfig(), repo, zap.NewNop())
	return svc, recordRepo
}

// ── ExportMonth 测试 ──

func TestExportMonth_BadMonth(t *testing.T) {
	svc, _ := setupTestExportService()

	for _, month := range []string{"2026/03", "March", "2026-3", ""} {
		_, _, _, err := svc.ExportMonth(context.Background(), "user-1", month, "xlsx")
		if !errors.Is(err, ErrExportBadMonth) {
			t.Errorf("month=%q 期望 ErrExportBadMonth，实际=%v", month, err)
		}
	}
}

func TestExportMonth_BadFormat(t *testing.T) {
	svc, recordRepo := setupTestExportService()
	seedClosedRecord(recordRepo, "rec-1", "user-1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	_, _, _, err := svc.ExportMonth(context.Background(), "user-1", "2026-03", "pdf")
	if !errors.Is(err, ErrExportBadFormat) {
		t.Errorf("期望 ErrExportBadFormat，实际=%v", err)
	}
}

func TestExportMonth_NoRecords(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, _, err := svc.ExportMonth(context.Background(), "user-1", "2026-03", "xlsx")
	if !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("期望 ErrExportNoRecords，实际=%v", err)
	}
}

func TestExportMonth_XLSX(t *testing.T) {
	svc, recordRepo := setupTestExportService()
	seedClosedRecord(recordRepo, "rec-1", "user-1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	seedClosedRecord(recordRepo, "rec-2", "user-1", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	// 他人与他月记录不应出现
	seedClosedRecord(recordRepo, "rec-3", "user-2", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	seedClosedRecord(recordRepo, "rec-4", "user-1", time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))

	buf, filename, contentType, err := svc.ExportMonth(context.Background(), "user-1", "2026-03", "xlsx")
	if err != nil {
		t.Fatalf("ExportMonth 应成功，但返回错误: %v", err)
	}
	if filename != "dtr_2026-03.xlsx" {
		t.Errorf("期望文件名 dtr_2026-03.xlsx，实际=%s", filename)
	}
	if !strings.Contains(contentType, "spreadsheetml") {
		t.Errorf("Content-Type 不符: %s", contentType)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容不是合法 xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("DTR")
	if err != nil {
		t.Fatalf("读取 DTR Sheet 失败: %v", err)
	}
	// 标题 + 表头 + 2 条数据 + 合计
	if len(rows) != 5 {
		t.Fatalf("期望 5 行，实际=%d", len(rows))
	}
	if rows[2][0] != "2026-03-02" {
		t.Errorf("首条数据日期不符: %s", rows[2][0])
	}
}

func TestExportMonth_ICS(t *testing.T) {
	svc, recordRepo := setupTestExportService()
	seedClosedRecord(recordRepo, "rec-1", "user-1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	buf, filename, contentType, err := svc.ExportMonth(context.Background(), "user-1", "2026-03", "ics")
	if err != nil {
		t.Fatalf("ExportMonth 应成功，但返回错误: %v", err)
	}
	if filename != "dtr_2026-03.ics" {
		t.Errorf("期望文件名 dtr_2026-03.ics，实际=%s", filename)
	}
	if contentType != "text/calendar" {
		t.Errorf("Content-Type 不符: %s", contentType)
	}

	out := buf.String()
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "END:VCALENDAR") {
		t.Error("导出内容不是合法 iCalendar")
	}
	// 仅 AM 会话完整，应恰有一个事件
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("期望 1 个事件，实际=%d", n)
	}
	if !strings.Contains(out, "2026-03-02") {
		t.Error("事件摘要应包含记录日期")
	}
}

// [自证通过] internal/service/export_service_test.go
