// Package provision mirrors the identity provider's account lifecycle into
// the local users table. It is the only code path that creates or removes
// user rows; request handlers never do.
package provision

import (
	"context"
	"fmt"

	"identity-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountCreated is the payload of a provider "account created" event.
// Every metadata field is optional; a missing field leaves the column unset.
type AccountCreated struct {
	ID          string
	Email       *string
	DisplayName *string
	AvatarURL   *string
}

type Provisioner struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Provisioner {
	return &Provisioner{db: db}
}

// CreateAccount inserts exactly one user row for the event's identity key.
// The provider delivers events at least once, so a redelivery must be a
// no-op: the insert does nothing when the row already exists, and both
// outcomes report success.
func (p *Provisioner) CreateAccount(ctx context.Context, ev AccountCreated) error {
	if ev.ID == "" {
		return fmt.Errorf("account created event without identity key")
	}

	user := model.User{
		ID:          ev.ID,
		Email:       ev.Email,
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
	}

	result := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return fmt.Errorf("db error: %w", result.Error)
	}

	return nil
}

// DeleteAccount removes the user row for the given identity key together
// with every device it owns, dependents first, in a single transaction.
// Nothing is left behind on failure and nothing happens twice on redelivery:
// deleting an unknown identity is a no-op.
func (p *Provisioner) DeleteAccount(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("account deleted event without identity key")
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Device{}).Error; err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(&model.User{}).Error; err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return nil
	})
}
