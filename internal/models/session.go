package models

import "time"

// Session is one issued bearer token. Only the SHA-256 hash of the raw token
// is persisted, so a database read alone cannot impersonate a user.
type Session struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TokenHash string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	UserID    uint64    `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
