package model

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors one identity-provider account. The ID is the provider's
// identity key; it is never generated locally and never reused. Rows are
// created and removed by the provisioning layer, not by API handlers.
type User struct {
	ID          string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Email       *string   `json:"email,omitempty" gorm:"type:varchar(255)"`
	DisplayName *string   `json:"display_name,omitempty" gorm:"type:varchar(255)"`
	AvatarURL   *string   `json:"avatar_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Devices []Device `json:"devices,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeSave stamps the row with the current time, overriding whatever the
// caller put in UpdatedAt.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
