package service

import "time"

// StartOfDay 将时间对齐到当天 00:00:00.000（UTC）。
// 已对齐的时间再次处理结果不变。
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay 将时间对齐到当天 23:59:59.999（UTC）。
// 已对齐的时间再次处理结果不变。
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// normalizeValidityWindow 归一化有效期窗口：起点取当天零点，终点取当天最后一毫秒。
func normalizeValidityWindow(from, to *time.Time) (*time.Time, *time.Time) {
	var normalizedFrom, normalizedTo *time.Time
	if from != nil && !from.IsZero() {
		value := StartOfDay(*from)
		normalizedFrom = &value
	}
	if to != nil && !to.IsZero() {
		value := EndOfDay(*to)
		normalizedTo = &value
	}
	return normalizedFrom, normalizedTo
}
