package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var ALL_SHOP_TABLES []interface{} = []interface{}{
	User{}, Product{}, Order{}, OrderItem{},
}

type User struct {
	ID           uint      `json:"id" gorm:"auto_increment;primary_key"`
	Email        string    `json:"email" gorm:"index;unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	Role         string    `json:"role" gorm:"not null"`
	IsGuest      bool      `json:"is_guest" gorm:"not null"`
	CreatedAt    time.Time `json:"createdTime"`
	UpdatedAt    time.Time `json:"updatedTime"`
}

type Product struct {
	ID          uint                        `json:"id" gorm:"auto_increment;primary_key"`
	Name        string                      `json:"name" gorm:"index;not null"`
	Description *string                     `json:"description,omitempty"`
	Price       decimal.Decimal             `json:"price" gorm:"type:decimal(10,2); not null"`
	Category    string                      `json:"category" gorm:"index"`
	Stock       int                         `json:"stock" gorm:"not null"`
	Status      string                      `json:"status" gorm:"index;not null"`
	Images      datatypes.JSONSlice[string] `json:"images,omitempty"`
	CreatedAt   time.Time                   `json:"createdTime"`
	UpdatedAt   time.Time                   `json:"updatedTime"`
}

// Order keeps a snapshot of the shipping contact as entered at checkout,
// independent of later User edits. TotalAmount is computed from store prices
// at order time and never recomputed afterwards.
type Order struct {
	ID             uint            `json:"id" gorm:"auto_increment;primary_key"`
	UserID         uint            `json:"user_id" gorm:"index;not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2); not null"`
	FullName       string          `json:"full_name" gorm:"not null"`
	Email          string          `json:"email" gorm:"index;not null"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Status         string          `json:"status" gorm:"index;not null"`
	PaymentStatus  string          `json:"payment_status" gorm:"not null"`
	PaymentSlipURL *string         `json:"payment_slip_url,omitempty"`
	Items          []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time       `json:"createdTime"`
	UpdatedAt      time.Time       `json:"updatedTime"`
}

type OrderItem struct {
	ID            uint              `json:"id" gorm:"auto_increment;primary_key"`
	OrderID       uint              `json:"order_id" gorm:"index;not null"`
	ProductID     uint              `json:"product_id" gorm:"index;not null"`
	Quantity      int               `json:"quantity" gorm:"not null"`
	Customization datatypes.JSONMap `json:"customization,omitempty"`
	CreatedAt     time.Time         `json:"createdTime"`
	UpdatedAt     time.Time         `json:"updatedTime"`
}
