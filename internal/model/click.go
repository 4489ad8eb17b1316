package model

import "time"

// Click 一次点击记录，只追加、写入一次
type Click struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Slug      string    `gorm:"size:50;not null;index" json:"slug"`
	Ts        time.Time `gorm:"not null;index" json:"ts"`
	IP        string    `gorm:"size:64;not null" json:"ip"`
	UserAgent string    `gorm:"type:text" json:"userAgent"`
	Referer   *string   `gorm:"size:2048" json:"referer"`
	Hostname  *string   `gorm:"size:255" json:"hostname"`
	Country   *string   `gorm:"size:100" json:"country"`
	Region    *string   `gorm:"size:100" json:"region"`
	City      *string   `gorm:"size:100" json:"city"`
	Timezone  *string   `gorm:"size:64" json:"timezone"`
	ISP       *string   `gorm:"column:isp;size:255" json:"isp"`
}
