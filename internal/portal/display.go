package portal

import (
	"fmt"
	"time"
)

var indonesianDays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDisplayDate renders t like "Senin, 12 Mei 2025".
func FormatDisplayDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", indonesianDays[t.Weekday()], t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// FormatEventTime renders t like "19:30 WIB - Selesai".
func FormatEventTime(t time.Time, zoneLabel string) string {
	if zoneLabel == "" {
		return fmt.Sprintf("%02d:%02d - Selesai", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%02d:%02d %s - Selesai", t.Hour(), t.Minute(), zoneLabel)
}
