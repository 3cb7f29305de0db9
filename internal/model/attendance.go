package model

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

type Attendance struct {
	ID        int64            `json:"id"`
	StudentID int64            `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
	TS        time.Time        `json:"ts"`
}
