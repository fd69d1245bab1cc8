package dto

import (
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// ProductDTO represents a product in API responses
type ProductDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code,omitempty"`
}

// ProductWithRoleDTO represents a product with the user's role
type ProductWithRoleDTO struct {
	ProductDTO
	Role models.ProductRole `json:"role"`
}

// ProductMemberDTO represents a member of a product
type ProductMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProductRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProductDetailDTO represents detailed product information
type ProductDetailDTO struct {
	ProductDTO
	Members  []ProductMemberDTO `json:"members"`
	YourRole models.ProductRole `json:"your_role"`
}

type FeatureDTO struct {
	ID        uint64 `json:"id"`
	VersionID uint64 `json:"version_id"`
	Name      string `json:"name"`
}

type VersionDTO struct {
	ID       uint64       `json:"id"`
	Name     string       `json:"name"`
	Features []FeatureDTO `json:"features"`
}

// ToProductDTO converts a Product model to ProductDTO
func ToProductDTO(product models.Product, includeInviteCode bool) ProductDTO {
	dto := ProductDTO{
		ID:   product.ID,
		Name: product.Name,
	}
	if includeInviteCode {
		dto.InviteCode = product.InviteCode
	}
	return dto
}

// ToProductWithRoleDTO converts a membership to a product DTO with role
func ToProductWithRoleDTO(member models.ProductMember) ProductWithRoleDTO {
	return ProductWithRoleDTO{
		ProductDTO: ToProductDTO(member.Product, member.Role == models.RoleOwner),
		Role:       member.Role,
	}
}

// ToProductMemberDTO converts a member to DTO
func ToProductMemberDTO(member models.ProductMember) ProductMemberDTO {
	return ProductMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToProductDetailDTO converts a product with members to detailed DTO. The
// invite code is only shown to owners.
func ToProductDetailDTO(product models.Product, members []models.ProductMember, yourRole models.ProductRole) ProductDetailDTO {
	memberDTOs := make([]ProductMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToProductMemberDTO(member)
	}

	return ProductDetailDTO{
		ProductDTO: ToProductDTO(product, yourRole == models.RoleOwner),
		Members:    memberDTOs,
		YourRole:   yourRole,
	}
}

func ToFeatureDTO(f models.Feature) FeatureDTO {
	return FeatureDTO{ID: f.ID, VersionID: f.VersionID, Name: f.Name}
}

func ToVersionDTO(v models.Version) VersionDTO {
	features := make([]FeatureDTO, len(v.Features))
	for i, f := range v.Features {
		features[i] = ToFeatureDTO(f)
	}
	return VersionDTO{ID: v.ID, Name: v.Name, Features: features}
}
