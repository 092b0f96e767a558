package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeMention NotificationType = "mention"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    string           `gorm:"size:36;not null;index:idx_notification_user_created,priority:1;uniqueIndex:idx_notification_comment_user,priority:2" json:"userId"` // Receiver
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message   string           `gorm:"type:text" json:"message"`
	CommentID string           `gorm:"size:36;not null;uniqueIndex:idx_notification_comment_user,priority:1" json:"commentId"`
	URL       string           `gorm:"not null" json:"url"`
	Read      bool             `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time        `gorm:"index:idx_notification_user_created,priority:2" json:"timestamp"`
}
