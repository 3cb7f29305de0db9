package model

import "time"

// AvailabilityWindow интервал, в который учитель принимает записи
type AvailabilityWindow struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"teacher_id"`
	StartTS   time.Time `json:"start_ts"`
	EndTS     time.Time `json:"end_ts"`
}

// Contains проверяет что [start, end] целиком лежит внутри окна
func (w *AvailabilityWindow) Contains(start, end time.Time) bool {
	return !start.Before(w.StartTS) && !end.After(w.EndTS)
}
