// Package model holds the GORM table mappings for the PostgreSQL schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email               string    `gorm:"type:varchar(255);unique;not null"`
	Name                string    `gorm:"type:varchar(100);not null"`
	PasswordHash        string    `gorm:"type:varchar(255);not null;default:''"`
	HashedRefreshToken  *string   `gorm:"type:varchar(255)"`
	ResetTokenHash      *string   `gorm:"type:varchar(255)"`
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Profile *ProfileModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ProfileModel mirrors the 'profiles' table. UserID references users.id (UUID).
type ProfileModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Picture   string    `gorm:"type:varchar(512)"`
	Bio       string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProfileModel) TableName() string {
	return "profiles"
}

// UserFollowModel mirrors the 'user_follows' table, one row per follow edge.
type UserFollowModel struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserFollowModel) TableName() string {
	return "user_follows"
}
