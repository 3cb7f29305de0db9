package model

import "time"

type Exam struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	TS        time.Time `json:"ts"`
}
