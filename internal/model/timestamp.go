package model

import (
	"fmt"
	"time"
)

// LocalLayout формат, в котором сохраняются новые записи
const LocalLayout = "2006-01-02T15:04:05"

// Допустимые ISO-8601 форматы без часового пояса.
// Дробные секунды принимаются любым форматом с секундами.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseLocal парсит наивную локальную метку времени.
// Результат лежит в time.UTC и трактуется как "настенное" время.
func ParseLocal(value string) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid local timestamp %q", value)
}

// FormatLocal форматирует время в LocalLayout
func FormatLocal(t time.Time) string {
	return t.Format(LocalLayout)
}

// Wall отбрасывает часовой пояс, сохраняя показания часов
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
