package models

import "time"

// Project is one uploaded recording plus its derived content.
//
// Pointer fields come in pairs: when AudioObjectKey (or CoverObjectKey) is
// non-nil the asset lives in the remote object store and the matching URL is
// that store's public URL for the key. When the key is nil the URL is either
// a relative path under the local uploads directory or, for covers only, an
// external URL that was never captured locally.
type Project struct {
	ID                uint64    `gorm:"primarykey" json:"id"`
	Name              string    `gorm:"type:varchar(255);not null" json:"name"`
	AudioURL          string    `gorm:"type:varchar(1024);not null" json:"audio_url"`
	AudioObjectKey    *string   `gorm:"type:varchar(512)" json:"audio_object_key,omitempty"`
	Transcription     *string   `gorm:"type:text" json:"transcription,omitempty"`
	EmotionalAnalysis *string   `gorm:"type:text" json:"emotional_analysis,omitempty"`
	CoverURL          *string   `gorm:"type:varchar(1024)" json:"cover_url,omitempty"`
	CoverObjectKey    *string   `gorm:"type:varchar(512)" json:"cover_object_key,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            *uint64   `gorm:"index" json:"user_id,omitempty"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}
