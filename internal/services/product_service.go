package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

var (
	ErrProductNotFound            = errors.New("product not found")
	ErrInvalidProductName         = errors.New("product name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyProductMember       = errors.New("user is already a member of this product")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the product")
	ErrProductMemberNotFound      = errors.New("product member not found")
	ErrVersionNotFound            = errors.New("version not found")
	ErrInvalidVersionName         = errors.New("version name cannot be empty")
	ErrFeatureNotFound            = errors.New("feature not found")
	ErrInvalidFeatureName         = errors.New("feature name cannot be empty")
)

// ProductService provides business logic for products and their versions
// and features.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
	}
}

// CreateProductInput represents parameters to create a new product.
type CreateProductInput struct {
	Name    string
	OwnerID uint64
}

// CreateProduct creates a new product and assigns the owner.
func (s *ProductService) CreateProduct(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidProductName
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	product := &models.Product{
		Name:       name,
		InviteCode: inviteCode,
	}
	owner := &models.ProductMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.productRepo.CreateWithOwner(product, owner); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// ListProductsForUser returns the memberships of a user with their products.
func (s *ProductService) ListProductsForUser(userID uint64) ([]models.ProductMember, error) {
	memberships, err := s.productRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return memberships, nil
}

// GetProductWithMembers returns a product and all of its members.
func (s *ProductService) GetProductWithMembers(productID uint64) (*models.Product, []models.ProductMember, error) {
	product, err := s.findProduct(productID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.productRepo.ListMembers(productID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list product members: %w", err)
	}

	return product, members, nil
}

// UpdateProductName updates a product's name.
func (s *ProductService) UpdateProductName(productID uint64, name string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidProductName
	}

	product, err := s.findProduct(productID)
	if err != nil {
		return nil, err
	}

	product.Name = name
	if err := s.productRepo.Update(product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a product with its versions, features and sprints.
func (s *ProductService) DeleteProduct(productID uint64) error {
	if _, err := s.findProduct(productID); err != nil {
		return err
	}

	if err := s.productRepo.Delete(productID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// JoinProductByInvite adds a user to a product via invite code.
func (s *ProductService) JoinProductByInvite(userID uint64, inviteCode string) (*models.Product, error) {
	product, err := s.productRepo.FindByInviteCode(utils.NormalizeInviteCode(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find product by invite code: %w", err)
	}

	if _, err := s.productRepo.FindMember(product.ID, userID); err == nil {
		return nil, ErrAlreadyProductMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.ProductMember{
		ProductID: product.ID,
		UserID:    userID,
		Role:      models.RoleMember,
		JoinedAt:  time.Now(),
	}

	if err := s.productRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to product: %w", err)
	}

	return product, nil
}

// RegenerateInviteCode generates a new invite code for the product.
func (s *ProductService) RegenerateInviteCode(productID uint64) (*models.Product, error) {
	product, err := s.findProduct(productID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	product.InviteCode = code
	if err := s.productRepo.Update(product); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return product, nil
}

// RemoveMember removes a member from the product.
func (s *ProductService) RemoveMember(productID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.productRepo.FindMember(productID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductMemberNotFound
		}
		return fmt.Errorf("failed to find product member: %w", err)
	}

	if err := s.productRepo.RemoveMember(productID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// IsMember reports whether userID belongs to productID.
func (s *ProductService) IsMember(productID, userID uint64) (bool, error) {
	if _, err := s.productRepo.FindMember(productID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify membership: %w", err)
	}
	return true, nil
}

// CreateVersion adds a release line to a product.
func (s *ProductService) CreateVersion(productID uint64, name string) (*models.Version, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidVersionName
	}

	version := &models.Version{ProductID: productID, Name: name}
	if err := s.productRepo.CreateVersion(version); err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}
	return version, nil
}

// ListVersions returns the versions of a product with their features.
func (s *ProductService) ListVersions(productID uint64) ([]models.Version, error) {
	versions, err := s.productRepo.ListVersions(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

func (s *ProductService) RenameVersion(productID, versionID uint64, name string) (*models.Version, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidVersionName
	}

	version, err := s.findVersion(productID, versionID)
	if err != nil {
		return nil, err
	}

	version.Name = name
	if err := s.productRepo.UpdateVersion(version); err != nil {
		return nil, fmt.Errorf("failed to update version: %w", err)
	}
	return version, nil
}

// DeleteVersion removes a version with its features and their sprints.
func (s *ProductService) DeleteVersion(productID, versionID uint64) error {
	if _, err := s.findVersion(productID, versionID); err != nil {
		return err
	}

	if err := s.productRepo.DeleteVersion(productID, versionID); err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	return nil
}

// CreateFeature adds a feature to a version of the product.
func (s *ProductService) CreateFeature(productID, versionID uint64, name string) (*models.Feature, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidFeatureName
	}

	if _, err := s.findVersion(productID, versionID); err != nil {
		return nil, err
	}

	feature := &models.Feature{ProductID: productID, VersionID: versionID, Name: name}
	if err := s.productRepo.CreateFeature(feature); err != nil {
		return nil, fmt.Errorf("failed to create feature: %w", err)
	}
	return feature, nil
}

func (s *ProductService) ListFeatures(productID, versionID uint64) ([]models.Feature, error) {
	if _, err := s.findVersion(productID, versionID); err != nil {
		return nil, err
	}

	features, err := s.productRepo.ListFeatures(productID, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	return features, nil
}

// DeleteFeature removes a feature with its sprints.
func (s *ProductService) DeleteFeature(productID, featureID uint64) error {
	if _, err := s.FindFeature(productID, featureID); err != nil {
		return err
	}

	if err := s.productRepo.DeleteFeature(productID, featureID); err != nil {
		return fmt.Errorf("failed to delete feature: %w", err)
	}
	return nil
}

// FindFeature returns a feature of the product.
func (s *ProductService) FindFeature(productID, featureID uint64) (*models.Feature, error) {
	feature, err := s.productRepo.FindFeature(productID, featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, fmt.Errorf("failed to find feature: %w", err)
	}
	return feature, nil
}

func (s *ProductService) findProduct(productID uint64) (*models.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

func (s *ProductService) findVersion(productID, versionID uint64) (*models.Version, error) {
	version, err := s.productRepo.FindVersion(productID, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to find version: %w", err)
	}
	return version, nil
}
