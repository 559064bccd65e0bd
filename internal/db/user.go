package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrUserNotFound reports a lookup for an id with no matching user row.
var ErrUserNotFound = errors.New("user not found")

// User is the post author. Only the fields the lifecycle needs are modeled;
// sessions and sign-in live elsewhere.
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// GetUserByID fetches a single user row.
func GetUserByID(gdb *gorm.DB, id uint) (*User, error) {
	var user User
	if err := gdb.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EnsureUser creates a bcrypt-hashed account when the given username does
// not exist yet. Blank credentials are a no-op.
func EnsureUser(gdb *gorm.DB, username, password string) (*User, error) {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil, nil
	}

	var existing User
	err := gdb.Where("username = ?", trimmedUser).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{Username: trimmedUser, Password: string(hashed)}
	if err := gdb.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
