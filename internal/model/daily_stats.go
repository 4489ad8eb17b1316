package model

type DailyStat struct {
	BaseModel
	ID   uint   `gorm:"primaryKey"`
	Slug string `gorm:"size:50;uniqueIndex:idx_slug_date"`
	Date string `gorm:"size:10;uniqueIndex:idx_slug_date"` // YYYY-MM-DD
	PV   int64  `gorm:"default:0"`
	UV   int64  `gorm:"default:0"`
}
