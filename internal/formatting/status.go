package formatting

import "github.com/Freeeeeet/dershane_desk/internal/model"

// StatusDisplay представляет отображение статуса посещения
type StatusDisplay struct {
	Emoji string
	Text  string
}

// AttendanceStatusDisplay возвращает emoji и текст для статуса посещения
func AttendanceStatusDisplay(status model.AttendanceStatus) StatusDisplay {
	displays := map[model.AttendanceStatus]StatusDisplay{
		model.AttendancePresent: {"✅", "присутствовал(а)"},
		model.AttendanceAbsent:  {"❌", "отсутствовал(а)"},
		model.AttendanceLate:    {"⏰", "опоздал(а)"},
		model.AttendanceExcused: {"📝", "отсутствовал(а) по уважительной причине"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", string(status)}
}
