package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/render"
)

func main() {
	output := flag.String("o", "week.png", "путь к файлу")
	flag.Parse()

	// Неделя с понедельника текущей даты
	now := model.Wall(time.Now())
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}
	day := func(offset int, hour, minute int) time.Time {
		return monday.AddDate(0, 0, offset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	entries := []render.Entry{
		// Окна преподавателя
		{Kind: render.EntryAvailability, Start: day(0, 9, 0), End: day(0, 11, 0), Label: "Окно"},
		{Kind: render.EntryAvailability, Start: day(1, 8, 0), End: day(1, 10, 0), Label: "Окно"},
		{Kind: render.EntryAvailability, Start: day(3, 14, 0), End: day(3, 17, 0), Label: "Окно"},
		// Записи ученика, недельная квота исчерпана к среде
		{Kind: render.EntryAppointment, Start: day(0, 9, 30), End: day(0, 9, 45), Label: "Математика"},
		{Kind: render.EntryAppointment, Start: day(1, 8, 30), End: day(1, 9, 15), Label: "Физика"},
		{Kind: render.EntryAppointment, Start: day(2, 16, 0), End: day(2, 16, 15), Label: "Химия"},
	}

	imageData, err := render.WeekImage(monday, "Пример: Ayşe Yılmaz", entries, now)
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Изображение успешно сохранено в %s\n", *output)
	fmt.Printf("📅 Неделя с %s\n", monday.Format("02.01.2006"))
	fmt.Printf("📊 Блоков: %d\n", len(entries))
}
