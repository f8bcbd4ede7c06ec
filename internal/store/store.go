// Package store is the only data-access surface request handlers are allowed
// to use. A Store is bound to the caller's identity at construction and every
// statement it issues carries the ownership predicate, evaluated per row by
// the database. There is no unscoped variant: an empty identity yields a
// handle that denies every operation.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"identity-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	db     *gorm.DB
	caller string
}

// ForCaller returns a data-access handle scoped to the given identity key.
// An unauthenticated caller (empty identity) satisfies no ownership
// predicate and is denied everything.
func ForCaller(db *gorm.DB, identity string) *Store {
	return &Store{db: db, caller: identity}
}

// ProfileUpdate carries the profile fields a user may change. Nil means
// "leave unchanged". The identity key and timestamps are not updatable
// through this path.
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
}

// GetUser returns the caller's own user row.
func (s *Store) GetUser(ctx context.Context) (*model.User, error) {
	if s.caller == "" {
		return nil, ErrNotFound
	}

	var user model.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", s.caller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &user, nil
}

// UpdateUser applies a profile update to the caller's own row and returns
// the updated row. The updated_at column is always stamped server-side;
// values supplied by the client never reach it.
func (s *Store) UpdateUser(ctx context.Context, upd ProfileUpdate) (*model.User, error) {
	if s.caller == "" {
		return nil, ErrNotFound
	}

	updates := map[string]interface{}{}
	if upd.DisplayName != nil {
		updates["display_name"] = *upd.DisplayName
	}
	if upd.AvatarURL != nil {
		updates["avatar_url"] = *upd.AvatarURL
	}
	if len(updates) == 0 {
		return s.GetUser(ctx)
	}
	updates["updated_at"] = time.Now()

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", s.caller).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("db error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetUser(ctx)
}

// DeleteUser removes the caller's own row and all devices it owns, in one
// transaction, dependents first.
func (s *Store) DeleteUser(ctx context.Context) error {
	if s.caller == "" {
		return ErrNotFound
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", s.caller).Delete(&model.Device{}).Error; err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		result := tx.Where("id = ?", s.caller).Delete(&model.User{})
		if result.Error != nil {
			return fmt.Errorf("db error: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})

	return err
}

// RegisterDevice creates a device row owned by the caller. Ownership is
// forced to the caller's identity; there is no way to register a device for
// someone else. A (user, token) pair can only be registered once.
func (s *Store) RegisterDevice(ctx context.Context, pushToken string) (*model.Device, error) {
	if s.caller == "" {
		return nil, ErrNotFound
	}

	var existing model.Device
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND push_token = ?", s.caller, pushToken).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	device := &model.Device{
		UserID:    s.caller,
		PushToken: pushToken,
	}
	if err := s.db.WithContext(ctx).Create(device).Error; err != nil {
		// Unique index backstop for concurrent registrations of the same token.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		// The owning user row is gone (account deleted between token issue
		// and registration).
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return device, nil
}

// ListDevices returns the caller's devices and nothing else.
func (s *Store) ListDevices(ctx context.Context) ([]model.Device, error) {
	if s.caller == "" {
		return nil, ErrNotFound
	}

	var devices []model.Device
	err := s.db.WithContext(ctx).
		Where("user_id = ?", s.caller).
		Order("created_at").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return devices, nil
}

// GetDevice returns a device row only if the caller owns it.
func (s *Store) GetDevice(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	if s.caller == "" {
		return nil, ErrNotFound
	}

	var device model.Device
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, s.caller).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &device, nil
}

// UpdateDevice replaces the push token of a device the caller owns (token
// refresh). The row keeps its identity and owner.
func (s *Store) UpdateDevice(ctx context.Context, id uuid.UUID, pushToken string) (*model.Device, error) {
	if s.caller == "" {
		return nil, ErrNotFound
	}

	var existing model.Device
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND push_token = ? AND id <> ?", s.caller, pushToken, id).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("id = ? AND user_id = ?", id, s.caller).
		Updates(map[string]interface{}{
			"push_token": pushToken,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetDevice(ctx, id)
}

// DeleteDevice removes a device row only if the caller owns it.
func (s *Store) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	if s.caller == "" {
		return ErrNotFound
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, s.caller).
		Delete(&model.Device{})
	if result.Error != nil {
		return fmt.Errorf("db error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
