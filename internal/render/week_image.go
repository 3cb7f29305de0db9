package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/formatting"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleMedium  FontStyle = "medium"
	FontStyleBold    FontStyle = "bold"
)

// EntryKind тип блока на картинке
type EntryKind int

const (
	EntryAppointment EntryKind = iota
	EntryAvailability
)

// Entry блок в сетке недели
type Entry struct {
	Kind  EntryKind
	Start time.Time
	End   time.Time
	Label string
}

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minEntryHeight   = 8.0
	entryRadius      = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxLabelRunes    = 20
	titleFontSize    = 25.0
	dayFontSize      = 27.0
	hourFontSize     = 18.0
	entryFontSize    = 17.0
	legendFontSize   = 12.0
	subtitleFontSize = 16.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	availabilityColor    = color.RGBA{133, 193, 85, 120}
	appointmentColor     = color.RGBA{255, 182, 193, 255}
	entryTextColor       = color.RGBA{20, 24, 28, 230}
	appointmentTextColor = color.RGBA{120, 40, 50, 255}
	entryShadowColor     = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type weekBounds struct {
	start time.Time
	end   time.Time
}

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

func fontData(style FontStyle) []byte {
	switch style {
	case FontStyleBold:
		return gobold.TTF
	case FontStyleMedium:
		return gomedium.TTF
	default:
		return goregular.TTF
	}
}

// loadFont ставит шрифт нужного стиля, при ошибке - basicfont
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData(style))
		if err == nil {
			cachedFonts[style] = parsed
		}
	}
	fontsMu.Unlock()

	if parsed == nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// WeekImage рисует неделю, содержащую day. now подсвечивает текущий день, если он в этой неделе.
func WeekImage(day time.Time, subtitle string, entries []Entry, now time.Time) ([]byte, error) {
	week := normalizeToWeekBounds(day)
	today := normalizeToDay(now)
	highlightToday := !today.Before(week.start) && !today.After(week.end)

	byDay := groupByDay(entries)
	hours := calculateHourRange(entries)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week, subtitle)
	drawHourLabels(dc, hours, cellHeight)

	current := week.start
	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)
		isToday := highlightToday && sameDay(current, today)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, isToday)
		drawDayHeader(dc, current, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, e := range byDay[current.Format("2006-01-02")] {
			drawEntry(dc, e, x, y, dayWidth, hours, cellHeight)
		}
		current = current.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeToWeekBounds(date time.Time) weekBounds {
	normalized := normalizeToDay(date)
	daysSinceMonday := (int(normalized.Weekday()) + 6) % 7
	start := normalized.AddDate(0, 0, -daysSinceMonday)
	return weekBounds{start: start, end: start.AddDate(0, 0, 6)}
}

func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// groupByDay раскладывает блоки по дням, окна рисуются под записями
func groupByDay(entries []Entry) map[string][]Entry {
	byDay := make(map[string][]Entry)
	for _, kind := range []EntryKind{EntryAvailability, EntryAppointment} {
		for _, e := range entries {
			if e.Kind == kind {
				key := e.Start.Format("2006-01-02")
				byDay[key] = append(byDay[key], e)
			}
		}
	}
	return byDay
}

func calculateHourRange(entries []Entry) hourRange {
	minHour, maxHour := 24, 0
	for _, e := range entries {
		startH := e.Start.Hour()
		endH := e.End.Hour()
		if e.End.Minute() > 0 || !sameDay(e.Start, e.End) {
			endH++
		}
		if !sameDay(e.Start, e.End) {
			endH = 24
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	startHour := max(minHour-hourPaddingTop, 0)
	endHour := min(maxHour+hourPaddingBot, 23)

	return hourRange{start: startHour, end: endHour, total: endHour - startHour + 1}
}

func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader рисует месяц и подпись (обычно имя студента)
func drawHeader(dc *gg.Context, week weekBounds, subtitle string) {
	title := formatting.MonthName(week.start.Month())
	if week.start.Month() != week.end.Month() {
		title += " - " + formatting.MonthName(week.end.Month())
	}
	title += fmt.Sprintf(" %d", week.end.Year())

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)

	if subtitle != "" {
		loadFont(dc, subtitleFontSize, FontStyleMedium)
		dc.DrawStringAnchored(subtitle, float64(imageWidth-legendWidth), float64(headerHeight)/8+h/2, 1, 0)
	}
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourFontSize, FontStyleMedium)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(formatting.WeekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func hourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0
}

func drawEntry(dc *gg.Context, e Entry, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := hourOf(e.Start)
	endHour := hourOf(e.End)
	if !sameDay(e.Start, e.End) {
		endHour = float64(hours.end + 1)
	}

	entryY := y + (startHour-float64(hours.start))*cellHeight
	entryHeight := max((endHour-startHour)*cellHeight, minEntryHeight)
	entryWidth := float64(dayWidth) - float64(dayPaddingX*2)

	if e.Kind == EntryAvailability {
		dc.SetColor(availabilityColor)
		dc.DrawRectangle(x+2, entryY, float64(dayWidth)-4, entryHeight)
		dc.Fill()
		return
	}

	dc.SetColor(entryShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, entryY+2+shadowOffset, entryWidth, entryHeight-4, entryRadius)
	dc.Fill()

	dc.SetColor(appointmentColor)
	dc.DrawRoundedRectangle(x+dayPaddingX, entryY+2, entryWidth, entryHeight-4, entryRadius)
	dc.Fill()

	dc.SetColor(darkenColor(appointmentColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, entryY+2, entryWidth, entryHeight-4, entryRadius)
	dc.Stroke()

	textClr := appointmentTextColor
	loadFont(dc, entryFontSize, FontStyleMedium)
	dc.SetColor(textClr)
	txtX := x + dayPaddingX + 8
	txtY := entryY + 18
	dc.DrawStringAnchored(entryTimeLabel(e), txtX, txtY, 0, 0)

	if e.Label != "" && entryHeight > 25 {
		loadFont(dc, entryFontSize-2, FontStyleMedium)
		dc.SetColor(entryTextColor)
		dc.DrawStringAnchored(truncate(e.Label, maxLabelRunes), txtX, txtY+16, 0, 0)
	}
}

// entryTimeLabel интервал записи, для переходящих через полночь только начало
func entryTimeLabel(e Entry) string {
	if !sameDay(e.Start, e.End) {
		return formatting.FormatTime(e.Start)
	}
	return formatting.FormatTimeRange(e.Start, e.End)
}

// truncate обрезает по рунам, чтобы не ломать кириллицу
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := hourOf(now)
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 100.0

	items := []struct {
		Label string
		Clr   color.Color
	}{
		{"Занятие", appointmentColor},
		{"Окно учителя", availabilityColor},
	}

	boxW, boxH := 20.0, 14.0
	liY := legendY + 22
	for _, item := range items {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendFontSize, FontStyleDefault)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}
