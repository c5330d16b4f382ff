package model

import (
	"errors"
	"fmt"
	"time"

	"flowchat/platform"

	"gorm.io/gorm"
)

// User 表示用户模型
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(255);not null;unique" json:"username"`
	Email     string    `gorm:"type:varchar(255);not null;unique" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateUser(user *User) error {
	db := platform.DB
	return db.Create(user).Error
}

func UserExists(username, email string) bool {
	db := platform.DB
	var count int64
	db.Model(&User{}).Where("username = ? OR email = ?", username, email).Count(&count)
	return count > 0
}

func GetUserByUsername(username string) (*User, error) {
	var user User
	db := platform.DB
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &user, nil
}

func GetUserByID(id uint) (*User, error) {
	var user User
	db := platform.DB
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &user, nil
}
