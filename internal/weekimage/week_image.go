// Package weekimage рисует PNG с расписанием учителя на неделю.
package weekimage

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 22.0
	hourLabelFontSize  = 16.0
	slotTimeFontSize   = 13.0
	legendItemFontSize = 12.0
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

	slotFreeColor      = color.RGBA{133, 193, 85, 220}
	slotBookedColor    = color.RGBA{255, 182, 193, 255}
	slotBlockedColor   = color.RGBA{200, 200, 200, 220}
	lessonColor        = color.RGBA{100, 149, 237, 230}
	lessonDoneColor    = color.RGBA{120, 120, 180, 200}
	lessonCancelColor  = color.RGBA{158, 158, 158, 200}
	slotTextColor      = color.RGBA{20, 24, 28, 230}
	lessonTextColor    = color.RGBA{255, 255, 255, 240}
	slotShadowColor    = color.RGBA{0, 0, 0, 20}
	legendTextColor    = color.RGBA{90, 95, 100, 220}
	legendItemColor    = color.RGBA{70, 74, 78, 220}
	hourRangeFallback  = slotgrid.DefaultGrid()
	defaultSlotMinutes = slotgrid.SnapMinutes
)

// Params данные для отрисовки одной недели
type Params struct {
	// WeekStart дата первой колонки
	WeekStart    time.Time
	Grid         slotgrid.Grid
	Availability []*model.TeacherAvailability
	Appointments []*model.Appointment
	// Now нужен для подсветки сегодняшнего дня и линии текущего времени
	Now time.Time
}

var (
	fontsOnce   sync.Once
	parsedFonts map[FontStyle]*opentype.Font
)

func parseFonts() {
	parsedFonts = make(map[FontStyle]*opentype.Font)
	for style, data := range map[FontStyle][]byte{
		FontStyleDefault: goregular.TTF,
		FontStyleBold:    gobold.TTF,
	} {
		f, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		parsedFonts[style] = f
	}
}

// loadFont выставляет шрифт нужного размера, при ошибке использует basicfont
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsOnce.Do(parseFonts)

	parsed, ok := parsedFonts[style]
	if !ok {
		parsed, ok = parsedFonts[FontStyleDefault]
	}
	if ok {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// Render рисует неделю: свободные и занятые слоты расписания поверх них занятия
func Render(p Params) ([]byte, error) {
	grid := p.Grid
	if grid.Validate() != nil {
		grid = hourRangeFallback
	}

	weekStart := normalizeToDay(p.WeekStart)
	today := normalizeToDay(p.Now)

	slotsByDay := groupSlotsByDay(p.Availability)
	lessonsByDay := groupLessonsByDay(p.Appointments)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / slotgrid.DaysPerWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(grid.Hours)

	drawHeader(dc, weekStart)
	drawHourLabels(dc, grid, cellHeight)

	highlightToday := false
	for dayIndex := 0; dayIndex < slotgrid.DaysPerWeek; dayIndex++ {
		date := weekStart.AddDate(0, 0, dayIndex)
		dateKey := date.Format(model.DateLayout)
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		isToday := !p.Now.IsZero() && date.Equal(today)
		if isToday {
			highlightToday = true
		}

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, isToday)
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, grid, cellHeight)

		for _, slot := range slotsByDay[dateKey] {
			drawSlot(dc, slot, x, y, dayWidth, grid, cellHeight)
		}
		for _, lesson := range lessonsByDay[dateKey] {
			drawLesson(dc, lesson, x, y, dayWidth, grid, cellHeight)
		}
	}

	if highlightToday {
		drawCurrentTimeLine(dc, p.Now, grid, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	return encodeImage(dc)
}

// normalizeToDay нормализует время к началу дня
func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func groupSlotsByDay(days []*model.TeacherAvailability) map[string][]model.TimeSlot {
	slotsByDay := make(map[string][]model.TimeSlot, len(days))
	for _, day := range days {
		slotsByDay[day.Date] = append(slotsByDay[day.Date], day.TimeSlots...)
	}
	return slotsByDay
}

func groupLessonsByDay(appointments []*model.Appointment) map[string][]*model.Appointment {
	lessonsByDay := make(map[string][]*model.Appointment)
	for _, a := range appointments {
		lessonsByDay[a.Date] = append(lessonsByDay[a.Date], a)
	}
	return lessonsByDay
}

// createCanvas создает новый контекст рисования с фоном
func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader рисует заголовок с названием месяца
func drawHeader(dc *gg.Context, weekStart time.Time) {
	startMonth := weekStart.Month()
	endMonth := weekStart.AddDate(0, 0, slotgrid.DaysPerWeek-1).Month()

	title := getMonthNameRussian(startMonth)
	if startMonth != endMonth {
		title += " - " + getMonthNameRussian(endMonth)
	}
	title += " " + strconv.Itoa(weekStart.Year())

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, grid slotgrid.Grid, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleDefault)
	dc.SetColor(hourLabelColor)

	for hIdx := 0; hIdx < grid.Hours; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(grid.Clock(hIdx*60), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

// drawDayBackground рисует фон дня
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

// drawDayHeader рисует название дня недели и дату
func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(getWeekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

// drawHourLines рисует горизонтальные линии часов
func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, grid slotgrid.Grid, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for hIdx := 0; hIdx <= grid.Hours; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// blockY переводит HH:MM и длительность в координаты блока внутри колонки дня
func blockY(clock string, minutes int, y float64, grid slotgrid.Grid, cellHeight float64) (float64, float64, bool) {
	start, err := model.ParseClock(clock)
	if err != nil {
		return 0, 0, false
	}

	offset := float64(start-grid.StartHour*60) / 60.0
	if offset < 0 || offset >= float64(grid.Hours) {
		return 0, 0, false
	}

	height := float64(minutes) / 60.0 * cellHeight
	if height < minSlotHeight {
		height = minSlotHeight
	}
	return y + offset*cellHeight, height, true
}

func drawBlock(dc *gg.Context, fill color.RGBA, x, top float64, dayWidth int, height float64) {
	width := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, top+1+shadowOffset, width, height-2, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, top+1, width, height-2, slotBorderRadius)
	dc.Fill()

	// Рамка
	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, top+1, width, height-2, slotBorderRadius)
	dc.Stroke()
}

// drawSlot рисует один слот расписания
func drawSlot(dc *gg.Context, slot model.TimeSlot, x, y float64, dayWidth int, grid slotgrid.Grid, cellHeight float64) {
	top, height, ok := blockY(slot.Time, defaultSlotMinutes, y, grid, cellHeight)
	if !ok {
		return
	}

	drawBlock(dc, getSlotColor(slot), x, top, dayWidth, height)

	if height >= slotTimeFontSize {
		loadFont(dc, slotTimeFontSize-2, FontStyleDefault)
		dc.SetColor(slotTextColor)
		dc.DrawStringAnchored(slot.Time, x+float64(dayPaddingX)+6, top+height/2, 0, 0.35)
	}
}

// drawLesson рисует занятие поверх слотов
func drawLesson(dc *gg.Context, a *model.Appointment, x, y float64, dayWidth int, grid slotgrid.Grid, cellHeight float64) {
	top, height, ok := blockY(a.Time, a.DurationMinutes, y, grid, cellHeight)
	if !ok {
		return
	}

	drawBlock(dc, getLessonColor(a.Status), x, top, dayWidth, height)

	loadFont(dc, slotTimeFontSize, FontStyleBold)
	dc.SetColor(lessonTextColor)
	txtX := x + float64(dayPaddingX) + 8
	dc.DrawStringAnchored(a.Time, txtX, top+slotTimeFontSize+2, 0, 0)

	// Номер ученика, если есть место
	if height > 2*slotTimeFontSize+6 {
		loadFont(dc, slotTimeFontSize-2, FontStyleDefault)
		dc.DrawStringAnchored(fmt.Sprintf("Ученик #%d", a.StudentID), txtX, top+2*slotTimeFontSize+4, 0, 0)
	}
}

// getSlotColor возвращает цвет слота по его состоянию
func getSlotColor(slot model.TimeSlot) color.RGBA {
	switch {
	case slot.BookedBy != nil:
		return slotBookedColor
	case slot.Available:
		return slotFreeColor
	default:
		return slotBlockedColor
	}
}

// getLessonColor возвращает цвет занятия по статусу
func getLessonColor(status model.AppointmentStatus) color.RGBA {
	switch status {
	case model.AppointmentStatusCompleted:
		return lessonDoneColor
	case model.AppointmentStatusCancelled:
		return lessonCancelColor
	default:
		return lessonColor
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует красную линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, grid slotgrid.Grid, cellHeight float64, dayWidth int) {
	currentHour := float64(now.Hour()) + float64(now.Minute())/60.0
	if currentHour < float64(grid.StartHour) || currentHour > float64(grid.StartHour+grid.Hours) {
		return
	}

	currentTimeY := float64(headerHeight) + (currentHour-float64(grid.StartHour))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), currentTimeY, float64(leftLabelsWidth+slotgrid.DaysPerWeek*dayWidth), currentTimeY)
	dc.Stroke()
}

// drawLegend рисует легенду справа
func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + slotgrid.DaysPerWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 170.0

	dc.SetColor(legendTextColor)

	legendItems := []struct {
		Label string
		Clr   color.Color
	}{
		{"Свободно", slotFreeColor},
		{"Забронировано", slotBookedColor},
		{"Закрыто", slotBlockedColor},
		{"Занятие", lessonColor},
		{"Проведено", lessonDoneColor},
		{"Отменено", lessonCancelColor},
	}

	boxW := 20.0
	boxH := 14.0
	liX := legendX
	liY := legendY + 22

	loadFont(dc, legendItemFontSize, FontStyleDefault)
	for _, item := range legendItems {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(liX, liY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, liX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 10
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// короткие дни недели
func getWeekdayShort(weekday time.Weekday) string {
	weekdays := map[time.Weekday]string{
		time.Monday:    "Пн",
		time.Tuesday:   "Вт",
		time.Wednesday: "Ср",
		time.Thursday:  "Чт",
		time.Friday:    "Пт",
		time.Saturday:  "Сб",
		time.Sunday:    "Вс",
	}
	return weekdays[weekday]
}

// названия месяцев на русском
func getMonthNameRussian(month time.Month) string {
	months := map[time.Month]string{
		time.January:   "Январь",
		time.February:  "Февраль",
		time.March:     "Март",
		time.April:     "Апрель",
		time.May:       "Май",
		time.June:      "Июнь",
		time.July:      "Июль",
		time.August:    "Август",
		time.September: "Сентябрь",
		time.October:   "Октябрь",
		time.November:  "Ноябрь",
		time.December:  "Декабрь",
	}
	return months[month]
}
