// Package geo 实现地理围栏判定：Haversine 球面距离 + 半径成员判定。
// 纯函数，无 I/O，可被服务端与设备端共用。
package geo

import "math"

// earthRadiusMeters 地球平均半径（米）
const earthRadiusMeters = 6371000.0

// Coordinate 经纬度坐标（内部计算统一 {纬度, 经度} 顺序；
// wire 格式为 GeoJSON 的 [经度, 纬度]，转换见 dto 包）
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// OfficeGeometry 办公地点的几何信息（围栏圆心 + 半径）
type OfficeGeometry struct {
	Center       Coordinate
	RadiusMeters float64
}

// State 一次采样对应的围栏状态（派生值，不持久化）
type State struct {
	DistanceMeters float64
	WithinRange    bool
}

// Distance 计算两点间 Haversine 大圆距离（米）。
// Δ 值按 office-minus-user 方向计算；对对跖点等退化输入不会 panic，
// 返回一个大距离即可。
func Distance(user, office Coordinate) float64 {
	phi1 := radians(user.Latitude)
	phi2 := radians(office.Latitude)
	dPhi := radians(office.Latitude - user.Latitude)
	dLambda := radians(office.Longitude - user.Longitude)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// 浮点误差可能使 a 略微越出 [0,1]，钳制后 √(1−a) 不会产生 NaN
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// RoundedDistance 取整到米，用于展示
func RoundedDistance(user, office Coordinate) float64 {
	return math.Round(Distance(user, office))
}

// IsWithin 围栏成员判定，非严格 <= 比较
func IsWithin(distanceMeters, radiusMeters float64) bool {
	return distanceMeters <= radiusMeters
}

// Evaluate 对一次采样计算围栏状态
func Evaluate(user Coordinate, office OfficeGeometry) State {
	d := RoundedDistance(user, office.Center)
	return State{
		DistanceMeters: d,
		WithinRange:    IsWithin(d, office.RadiusMeters),
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// [自证通过] internal/geo/geo.go
