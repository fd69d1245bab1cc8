package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members  []ProductMember `gorm:"foreignKey:ProductID" json:"members,omitempty"`
	Versions []Version       `gorm:"foreignKey:ProductID" json:"versions,omitempty"`
}

// Version is a release line of a product.
type Version struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	ProductID uint64         `gorm:"not null;index" json:"product_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Features []Feature `gorm:"foreignKey:VersionID" json:"features,omitempty"`
}

// Feature groups the sprints that deliver one capability of a version.
type Feature struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	ProductID uint64         `gorm:"not null;index" json:"product_id"`
	VersionID uint64         `gorm:"not null;index" json:"version_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Sprints []Sprint `gorm:"foreignKey:FeatureID" json:"sprints,omitempty"`
}
