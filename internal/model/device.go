package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device represents one push-notification registration owned by a user.
// The (user_id, push_token) pair is unique so a client re-registering the
// same token is rejected instead of piling up duplicate registrations.
type Device struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_user_token"`
	PushToken string    `json:"push_token" gorm:"type:varchar(512);not null;uniqueIndex:idx_user_token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// BeforeSave stamps the row with the current time, overriding whatever the
// caller put in UpdatedAt.
func (d *Device) BeforeSave(tx *gorm.DB) error {
	d.UpdatedAt = time.Now()
	return nil
}
