package model

import (
	"time"
)

type UserRole string

const (
	Admin   UserRole = "admin"
	Editor  UserRole = "editor"
	Analyst UserRole = "analyst"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;default:'editor'" json:"role"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func NewUser(name, email, passwordHash string, role UserRole) *User {
	return &User{
		Name:     name,
		Email:    email,
		Password: passwordHash,
		Role:     role,
	}
}

// NewUserWithID 用于从外部身份源还原用户，ID 由调用方给定
func NewUserWithID(id uint, name, email string, role UserRole) *User {
	u := NewUser(name, email, "", role)
	u.ID = id
	return u
}
