package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Username     string       `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string       `gorm:"size:254;not null;index" json:"-"`
	PasswordHash string       `gorm:"not null" json:"-"`
	IsStaff      bool         `gorm:"not null;default:false" json:"is_staff"`
	Profile      *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile holds the public, user-editable part of an account. Every user has
// at most one; see service.ProfileService.EnsureProfile.
type UserProfile struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	Bio       string    `gorm:"type:text;not null;default:''" json:"bio"`
	AvatarKey string    `gorm:"size:255" json:"-"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
