package model

import "time"

type Appointment struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	TeacherID   int64     `json:"teacher_id"`
	StartTS     string    `json:"start_ts"` // хранится как ISO текст, старые строки могут не парситься
	DurationMin int       `json:"duration_min"`
	CreatedAt   time.Time `json:"created_at"`
}

// Start парсит StartTS как локальное время без зоны
func (a *Appointment) Start() (time.Time, error) {
	return ParseLocal(a.StartTS)
}

// End возвращает время окончания занятия
func (a *Appointment) End() (time.Time, error) {
	start, err := a.Start()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.DurationMin) * time.Minute), nil
}
