package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	wavechat_errors "wavechat/pkg/errors"
)

// Profile is the display metadata the messaging UI needs for a participant.
type Profile struct {
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Directory is the read-only identity/profile lookup. The messaging core
// never writes to it; account management lives elsewhere.
type Directory interface {
	Profile(ctx context.Context, userID uuid.UUID) (Profile, error)
}

type gormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) Profile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	var p Profile
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Profile{}, wavechat_errors.ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}
