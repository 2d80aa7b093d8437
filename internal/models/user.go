package models

import (
	"fmt"
	"time"
)

// User represents an identity record for an Apple Music listener.
//
// The taste engine reads only the Apple Music user id and storefront; the
// remaining fields belong to the login flow.
type User struct {
	id               string
	sequence         int
	appleMusicUserID string
	displayName      string
	storefront       string
	userToken        string
	lastLogin        *time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewUser creates a new User with timestamps initialized to now.
func NewUser(sequence int, appleMusicUserID, displayName, storefront string) *User {
	now := time.Now()
	if storefront == "" {
		storefront = "us"
	}
	return &User{
		sequence:         sequence,
		appleMusicUserID: appleMusicUserID,
		displayName:      displayName,
		storefront:       storefront,
		createdAt:        now,
		updatedAt:        now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) AppleMusicUserID() string { return u.appleMusicUserID }
func (u *User) DisplayName() string   { return u.displayName }
func (u *User) Storefront() string    { return u.storefront }
func (u *User) UserToken() string     { return u.userToken }
func (u *User) LastLogin() *time.Time { return u.lastLogin }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)              { u.id = id }
func (u *User) SetDisplayName(name string)   { u.displayName = name }
func (u *User) SetStorefront(sf string)      { u.storefront = sf }
func (u *User) SetUserToken(token string)    { u.userToken = token }
func (u *User) SetLastLogin(t *time.Time)    { u.lastLogin = t }
func (u *User) SetUpdatedAt(t time.Time)     { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)    { u.deletedAt = t }

// HasToken reports whether the user has a stored Music-User-Token.
func (u *User) HasToken() bool { return u.userToken != "" }

// Validate checks if the user's data is valid.
func (u *User) Validate() error {
	if u.appleMusicUserID == "" {
		return fmt.Errorf("apple music user id is required")
	}
	if u.displayName == "" {
		return fmt.Errorf("display name is required")
	}
	if len(u.storefront) != 2 {
		return fmt.Errorf("storefront must be a two-letter region code, got %q", u.storefront)
	}
	return nil
}
