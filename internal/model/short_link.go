package model

import "time"

// Link 短链记录，由外部 CRUD 服务维护；重定向路径只读，
// 仅通过原子自增修改 ClickCount / LastClickedAt
type Link struct {
	BaseModel
	Slug           string     `gorm:"primaryKey;size:50" json:"slug"`
	LongURL        string     `gorm:"size:2048;not null" json:"longUrl"`
	Disabled       bool       `gorm:"default:false" json:"disabled"`
	ClickCount     int64      `gorm:"default:0" json:"clickCount"`
	LastClickedAt  *time.Time `json:"lastClickedAt"`
	EmailAlerts    bool       `gorm:"default:false" json:"emailAlerts"`
	Notes          string     `gorm:"size:1024" json:"notes,omitempty"`
	Tags           string     `gorm:"size:512" json:"tags,omitempty"` // 逗号分隔
	CreatedBy      string     `gorm:"size:255" json:"createdBy,omitempty"`
	UniqueVisitors int64      `gorm:"default:0" json:"uniqueVisitors"`
}
