package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role of a back-office user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

var ErrUserNotFound = errors.New("user not found")

// CheckPasswordLength rejects passwords bcrypt cannot hash. The struct tag
// counts runes, so multi-byte passwords need this extra check.
func CheckPasswordLength(password string) error {
	if len(password) > MaxPasswordBytes {
		return &ValidationError{Fields: map[string]string{"password": "must be at most 72 bytes"}}
	}
	return nil
}

type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username       string    `json:"username" gorm:"not null;uniqueIndex" validate:"required,min=3,max=64"`
	Password       string    `json:"password,omitempty" gorm:"-" validate:"required,min=8,max=72"`
	HashedPassword string    `json:"-" gorm:"not null"`
	Role           Role      `json:"role" gorm:"type:varchar(16);not null;default:'staff'" validate:"omitempty,oneof=admin staff"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return err
	}
	u.ID = uuidV7.String()

	if u.Role == "" {
		u.Role = RoleStaff
	}

	// Hash password if it's set
	if u.Password != "" {
		if err := CheckPasswordLength(u.Password); err != nil {
			return err
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.HashedPassword = string(hashedPassword)
		// Clear the plain text password
		u.Password = ""
	}
	if u.HashedPassword == "" {
		return errors.New("password is required")
	}

	return
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	return err == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func GetUserByUsername(db *gorm.DB, username string) (*User, error) {
	var user User
	result := db.Where("username = ?", username).First(&user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}
