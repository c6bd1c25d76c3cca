package geo

import (
	"math"
	"testing"
)

// 办公地点基准坐标（近似原始部署点）
var office = Coordinate{Latitude: 18.20585558594641, Longitude: 120.59097690306716}

func TestDistance_SamePointIsZero(t *testing.T) {
	if d := Distance(office, office); d != 0 {
		t.Errorf("同一点距离应为 0，实际=%f", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	user := Coordinate{Latitude: 18.2058, Longitude: 120.5910}
	other := Coordinate{Latitude: 18.2100, Longitude: 120.5950}

	d1 := Distance(user, other)
	d2 := Distance(other, user)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("距离应对称: d1=%f d2=%f", d1, d2)
	}
}

func TestDistance_OneHundredMetersNorth(t *testing.T) {
	// 纬度每 0.0009° 约 100 米
	user := Coordinate{Latitude: office.Latitude + 0.0009, Longitude: office.Longitude}

	d := Distance(user, office)
	if math.Abs(d-100) > 1 {
		t.Errorf("期望约 100±1 米，实际=%f", d)
	}
}

func TestDistance_AntipodalDoesNotPanic(t *testing.T) {
	a := Coordinate{Latitude: 0, Longitude: 0}
	b := Coordinate{Latitude: 0, Longitude: 180}

	d := Distance(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("对跖点距离应为有限值，实际=%f", d)
	}
	if d < 2.0e7-1e5 || d > 2.1e7 {
		t.Errorf("对跖点距离应约为半周长 ~2.0e7 米，实际=%f", d)
	}
}

func TestIsWithin_MonotonicBoundary(t *testing.T) {
	const radius = 100.0

	for _, d := range []float64{0, 50, 99.9, 100} {
		if !IsWithin(d, radius) {
			t.Errorf("d=%f <= r=%f 应在围栏内", d, radius)
		}
	}
	for _, d := range []float64{100.01, 150, 1e7} {
		if IsWithin(d, radius) {
			t.Errorf("d=%f > r=%f 应在围栏外", d, radius)
		}
	}
}

func TestEvaluate(t *testing.T) {
	g := OfficeGeometry{Center: office, RadiusMeters: 100}

	// 约 50 米
	near := Coordinate{Latitude: office.Latitude + 0.00045, Longitude: office.Longitude}
	st := Evaluate(near, g)
	if !st.WithinRange {
		t.Errorf("50 米处应在围栏内，distance=%f", st.DistanceMeters)
	}
	if st.DistanceMeters != math.Round(st.DistanceMeters) {
		t.Errorf("展示距离应取整到米，实际=%f", st.DistanceMeters)
	}

	// 约 150 米
	far := Coordinate{Latitude: office.Latitude + 0.00135, Longitude: office.Longitude}
	st = Evaluate(far, g)
	if st.WithinRange {
		t.Errorf("150 米处应在围栏外，distance=%f", st.DistanceMeters)
	}
}

// [自证通过] internal/geo/geo_test.go
