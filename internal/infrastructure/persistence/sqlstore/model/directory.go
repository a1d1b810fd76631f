package model

import "time"

type Supplier struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:255;not null"`
	CNPJ      string    `gorm:"column:cnpj;size:32;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

type User struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Email     string    `gorm:"column:email;size:191;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

type UserPermission struct {
	UserID uint64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Code   string `gorm:"column:code;size:100;primaryKey;index"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
