package stats

import "github.com/shopspring/decimal"

// RatePlaces 比率保留的小数位
const RatePlaces = 4

// HourPlaces 工时保留的小数位
const HourPlaces = 2

// Round 按十进制四舍五入
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Ratio 计算 num/den 并保留 RatePlaces 位，den 为 0 时返回 whenZero
func Ratio(num, den, whenZero float64) float64 {
	if den == 0 {
		return whenZero
	}
	f, _ := decimal.NewFromFloat(num).DivRound(decimal.NewFromFloat(den), RatePlaces).Float64()
	return f
}
