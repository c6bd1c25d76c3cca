package service

import (
	"context"
	"errors"
	"math"
	"regexp"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"geoattend/backend/config"
	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/geo"
	"geoattend/backend/internal/model"
	"geoattend/backend/internal/repository"
	perrors "geoattend/backend/pkg/errors"
)

// ── 考勤记录模块业务错误 ──

var (
	ErrTimeRecordNotFound = errors.New("考勤记录不存在")
	ErrRecordNotOwned     = errors.New("无权操作该考勤记录")

	ErrUndertimeDateMismatch = errors.New("欠时日期与所选记录不符")
	ErrMakeupDateFormat      = errors.New("补时日期格式须为 YYYY-MM-DD")
	ErrMakeupDatePast        = errors.New("补时日期不能早于今天")
	ErrOffsetHoursInvalid    = errors.New("偏移小时数须在 0 到 8 之间，且为 0.25 的倍数")
)

var makeupDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	offsetHoursMax  = 8.0
	offsetHoursStep = 0.25
)

// TimeRecordService 考勤记录业务接口
type TimeRecordService interface {
	ListMine(ctx context.Context, userID string) ([]dto.TimeRecordResponse, error)
	// TimeIn 签到：创建或复用当日记录，按 (日期, 会话) 拒绝重复签到
	TimeIn(ctx context.Context, userID string, req *dto.TimeInRequest) (*dto.TimeRecordMutationResponse, error)
	// TimeOut 签退：会话须处于已签到未签退状态，重复签退返回业务冲突
	TimeOut(ctx context.Context, userID, recordID string, req *dto.TimeOutRequest) (*dto.TimeRecordMutationResponse, error)
	// Offset 欠时/补时偏移，规则与设备端校验一致，服务端兜底复查
	Offset(ctx context.Context, userID, recordID string, req *dto.OffsetRequest) (*dto.TimeRecordMutationResponse, error)
}

type timeRecordService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time // 测试注入
}

// NewTimeRecordService 创建 TimeRecordService 实例
func NewTimeRecordService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) TimeRecordService {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Warn("时区加载失败，回退本地时区", zap.String("timezone", cfg.Server.Timezone), zap.Error(err))
		loc = time.Local
	}
	return &timeRecordService{
		repo:   repo,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// ────────────────────── ListMine ──────────────────────

func (s *timeRecordService) ListMine(ctx context.Context, userID string) ([]dto.TimeRecordResponse, error) {
	records, err := s.repo.TimeRecord.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("userId", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.TimeRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, *toTimeRecordResponse(&records[i]))
	}
	return result, nil
}

// ────────────────────── TimeIn ──────────────────────

func (s *timeRecordService) TimeIn(ctx context.Context, userID string, req *dto.TimeInRequest) (*dto.TimeRecordMutationResponse, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	record, err := s.repo.TimeRecord.GetByUserAndDate(ctx, userID, today)
	created := false
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询当日记录失败", zap.String("userId", userID), zap.Error(err))
			return nil, err
		}
		record = &model.TimeRecord{UserID: userID, RecordDate: today}
		record.CreatedBy = &userID
		created = true
	}

	// 同一 (日期, 会话) 只允许一次签到
	switch req.Session {
	case "AM":
		if record.AMTimeIn != nil {
			if record.AMTimeOut == nil {
				return nil, perrors.ErrSessionAlreadyOpen
			}
			return nil, perrors.ErrSessionAlreadyClosed
		}
		record.AMTimeIn = &now
	case "PM":
		if record.PMTimeIn != nil {
			if record.PMTimeOut == nil {
				return nil, perrors.ErrSessionAlreadyOpen
			}
			return nil, perrors.ErrSessionAlreadyClosed
		}
		record.PMTimeIn = &now
	}

	s.stampLocation(ctx, record, req.Coordinates, userID)
	record.UpdatedBy = &userID

	if created {
		err = s.repo.TimeRecord.Create(ctx, record)
	} else {
		err = s.repo.TimeRecord.Update(ctx, record)
	}
	if err != nil {
		s.logger.Error("写入签到记录失败", zap.String("userId", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("签到成功",
		zap.String("userId", userID),
		zap.String("session", req.Session),
		zap.String("recordId", record.TimeRecordID))

	return &dto.TimeRecordMutationResponse{
		Message:            "签到成功",
		TimeRecordResponse: *toTimeRecordResponse(record),
	}, nil
}

// ────────────────────── TimeOut ──────────────────────

func (s *timeRecordService) TimeOut(ctx context.Context, userID, recordID string, req *dto.TimeOutRequest) (*dto.TimeRecordMutationResponse, error) {
	record, err := s.ownedRecord(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	switch {
	case req.Session == "AM" && record.SessionOpen("AM"):
		record.AMTimeOut = &now
	case req.Session == "PM" && record.SessionOpen("PM"):
		record.PMTimeOut = &now
	case record.TimeIn != nil && record.TimeOut == nil:
		// 旧版单会话记录
		record.TimeOut = &now
	case record.SessionClosed(req.Session):
		return nil, perrors.ErrSessionAlreadyClosed
	default:
		return nil, perrors.ErrSessionNotOpen
	}

	record.TotalHours = computeTotalHours(record)
	s.stampLocation(ctx, record, req.Coordinates, userID)
	record.UpdatedBy = &userID

	if err := s.repo.TimeRecord.Update(ctx, record); err != nil {
		s.logger.Error("写入签退记录失败", zap.String("recordId", recordID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("签退成功",
		zap.String("userId", userID),
		zap.String("session", req.Session),
		zap.String("recordId", record.TimeRecordID),
		zap.Float64("totalHours", record.TotalHours))

	return &dto.TimeRecordMutationResponse{
		Message:            "签退成功",
		TimeRecordResponse: *toTimeRecordResponse(record),
	}, nil
}

// ────────────────────── Offset ──────────────────────

func (s *timeRecordService) Offset(ctx context.Context, userID, recordID string, req *dto.OffsetRequest) (*dto.TimeRecordMutationResponse, error) {
	record, err := s.ownedRecord(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	if err := s.validateOffset(record, req); err != nil {
		return nil, err
	}

	record.Undertime = req.Undertime
	record.Makeup = req.Makeup
	if req.MakeupDate != "" {
		d, _ := time.Parse("2006-01-02", req.MakeupDate)
		record.MakeupDate = &d
	} else {
		record.MakeupDate = nil
	}
	record.TotalHours = computeTotalHours(record)
	record.UpdatedBy = &userID

	if err := s.repo.TimeRecord.Update(ctx, record); err != nil {
		s.logger.Error("写入偏移失败", zap.String("recordId", recordID), zap.Error(err))
		return nil, err
	}

	return &dto.TimeRecordMutationResponse{
		Message:            "偏移提交成功",
		TimeRecordResponse: *toTimeRecordResponse(record),
	}, nil
}

// validateOffset 与设备端校验同序：日期匹配 → 格式 → 不早于今天 → 小时数
func (s *timeRecordService) validateOffset(record *model.TimeRecord, req *dto.OffsetRequest) error {
	if record.RecordDate.Format("2006-01-02") != req.UndertimeDate {
		return ErrUndertimeDateMismatch
	}
	if req.MakeupDate != "" {
		if !makeupDatePattern.MatchString(req.MakeupDate) {
			return ErrMakeupDateFormat
		}
		if _, err := time.Parse("2006-01-02", req.MakeupDate); err != nil {
			return ErrMakeupDateFormat
		}
		// 字符串字典序比较，避免跨时区解析误差
		if req.MakeupDate < s.now().In(s.loc).Format("2006-01-02") {
			return ErrMakeupDatePast
		}
	}
	if !validOffsetHours(req.Undertime) || !validOffsetHours(req.Makeup) {
		return ErrOffsetHoursInvalid
	}
	return nil
}

func validOffsetHours(h float64) bool {
	if h < 0 || h > offsetHoursMax {
		return false
	}
	return math.Mod(h, offsetHoursStep) == 0
}

// ────────────────────── 内部方法 ──────────────────────

func (s *timeRecordService) ownedRecord(ctx context.Context, userID, recordID string) (*model.TimeRecord, error) {
	record, err := s.repo.TimeRecord.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeRecordNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("recordId", recordID), zap.Error(err))
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrRecordNotOwned
	}
	return record, nil
}

// stampLocation 记录打卡时刻的定位快照与离办公地点距离。
// 拿不到启用中的办公地点时只记坐标，距离留空
func (s *timeRecordService) stampLocation(ctx context.Context, record *model.TimeRecord, coords dto.Coordinates, userID string) {
	lat, lng := coords.Lat(), coords.Lng()
	record.Latitude = &lat
	record.Longitude = &lng

	office, err := s.repo.OfficeLocation.GetActive(ctx)
	if err != nil {
		s.logger.Warn("查询启用办公地点失败，距离快照留空", zap.String("userId", userID), zap.Error(err))
		record.DistanceMeters = nil
		return
	}

	d := geo.Distance(coords.ToGeo(), geo.Coordinate{
		Latitude:  office.Latitude,
		Longitude: office.Longitude,
	})
	d = math.Round(d*100) / 100
	record.DistanceMeters = &d
}

// computeTotalHours 汇总当日工时：AM+PM（含旧版单会话）− 欠时 + 补时，保留两位小数
func computeTotalHours(r *model.TimeRecord) float64 {
	var total float64
	total += spanHours(r.AMTimeIn, r.AMTimeOut)
	total += spanHours(r.PMTimeIn, r.PMTimeOut)
	total += spanHours(r.TimeIn, r.TimeOut)
	total = total - r.Undertime + r.Makeup
	return math.Round(total*100) / 100
}

func spanHours(in, out *time.Time) float64 {
	if in == nil || out == nil {
		return 0
	}
	return out.Sub(*in).Hours()
}

func toTimeRecordResponse(r *model.TimeRecord) *dto.TimeRecordResponse {
	resp := &dto.TimeRecordResponse{
		ID:         r.TimeRecordID,
		Date:       r.RecordDate.Format("2006-01-02"),
		AMTimeIn:   stampString(r.AMTimeIn),
		AMTimeOut:  stampString(r.AMTimeOut),
		PMTimeIn:   stampString(r.PMTimeIn),
		PMTimeOut:  stampString(r.PMTimeOut),
		TimeIn:     stampString(r.TimeIn),
		TimeOut:    stampString(r.TimeOut),
		Undertime:  r.Undertime,
		Makeup:     r.Makeup,
		TotalHours: r.TotalHours,
	}
	if r.MakeupDate != nil {
		md := r.MakeupDate.Format("2006-01-02")
		resp.MakeupDate = &md
	}
	if r.Latitude != nil && r.Longitude != nil {
		loc := &dto.RecordLocation{
			Coordinates: dto.Coordinates{*r.Longitude, *r.Latitude},
		}
		if r.DistanceMeters != nil {
			loc.DistanceAtClockEvent = *r.DistanceMeters
		}
		resp.Location = loc
	}
	return resp
}

func stampString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// [自证通过] internal/service/time_record_service.go
