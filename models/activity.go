package models

import "time"

// ActivityStat stores aggregated request counts per day and path, feeding the
// admin dashboard's daily-active figure.
type ActivityStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_activity_date_path,unique;type:date;not null" json:"date"`
	Path      string    `gorm:"index:idx_activity_date_path,unique;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityDay returns the local midnight that keys activity rows for t.
// Both the recorder and the dashboard queries must use this value so the
// window lines up with the stored Date regardless of the server timezone.
func ActivityDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
