package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// NewsItem is one financial news record. The URL is the sole dedup key;
// records older than the retention window are purged periodically.
type NewsItem struct {
	URL         string     `gorm:"primaryKey;column:url;type:varchar(512)" json:"url"`
	Tag         string     `gorm:"type:varchar(512)" json:"tag"`
	Summary     string     `gorm:"type:text" json:"summary"`
	Content     *string    `gorm:"type:text" json:"content,omitempty"`
	PubTime     string     `gorm:"type:varchar(32)" json:"pub_time"`
	PubDateTime *time.Time `json:"pub_date_time,omitempty"`
	CreateTime  time.Time  `gorm:"not null" json:"create_time"`
}

func (NewsItem) TableName() string { return common.TableNewsItem }
