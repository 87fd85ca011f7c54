package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTier = "bronze"

// User is an account in the distribution chain. CreatedByID points at the
// account that onboarded this one; it is a back-reference, never ownership.
// A pembeli phone is unique, so walk-in buyers resolve to a single account.
type User struct {
	BaseModel
	Username    string     `gorm:"type:varchar(255);not null" json:"username"`
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Role        Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	Tier        string     `gorm:"type:varchar(20);not null;default:bronze" json:"tier"`
	Address     string     `gorm:"type:text" json:"address"`
	Phone       string     `gorm:"type:varchar(20);index;uniqueIndex:idx_users_buyer_phone,where:role = 'pembeli' AND phone <> ''" json:"phone"`
	CreatedByID *uuid.UUID `gorm:"type:uuid;index" json:"created_by_id,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	Tier        string     `json:"tier"`
	Address     string     `json:"address"`
	Phone       string     `json:"phone"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Tier:        u.Tier,
		Address:     u.Address,
		Phone:       u.Phone,
		CreatedByID: u.CreatedByID,
		CreatedAt:   u.CreatedAt,
	}
}
