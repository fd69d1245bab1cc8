package models

import "time"

type ProductRole string

const (
	RoleOwner  ProductRole = "owner"
	RoleMember ProductRole = "member"
)

type ProductMember struct {
	ProductID uint64      `gorm:"primarykey" json:"product_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProductRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
