package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// GormProductRepository is a GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// CreateWithOwner creates a product and makes owner.UserID its owner
func (r *GormProductRepository) CreateWithOwner(product *models.Product, owner *models.ProductMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		owner.ProductID = product.ID
		return tx.Create(owner).Error
	})
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(id uint64) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByInviteCode finds a product by invite code
func (r *GormProductRepository) FindByInviteCode(code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("invite_code = ?", code).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update updates a product
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete deletes a product and all related data in a transaction
func (r *GormProductRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("product_id = ?", id)

		if err := tx.Where("task_id IN (?) OR predecessor_id IN (?)", taskIDs, taskIDs).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Worklog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Sprint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Feature{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Version{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}

// AddMember adds a member to a product
func (r *GormProductRepository) AddMember(member *models.ProductMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a product
func (r *GormProductRepository) RemoveMember(productID, userID uint64) error {
	return r.db.Where("product_id = ? AND user_id = ?", productID, userID).
		Delete(&models.ProductMember{}).Error
}

// FindMember finds a specific product member
func (r *GormProductRepository) FindMember(productID, userID uint64) (*models.ProductMember, error) {
	var member models.ProductMember
	if err := r.db.Where("product_id = ? AND user_id = ?", productID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists all products a user is a member of
func (r *GormProductRepository) ListMembersByUserID(userID uint64) ([]models.ProductMember, error) {
	var memberships []models.ProductMember
	if err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("product_id").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all members of a product
func (r *GormProductRepository) ListMembers(productID uint64) ([]models.ProductMember, error) {
	var members []models.ProductMember
	if err := r.db.Preload("User").
		Where("product_id = ?", productID).
		Order("joined_at").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *GormProductRepository) CreateVersion(version *models.Version) error {
	return r.db.Create(version).Error
}

// FindVersion finds a version that belongs to productID
func (r *GormProductRepository) FindVersion(productID, versionID uint64) (*models.Version, error) {
	var version models.Version
	if err := r.db.Where("product_id = ?", productID).First(&version, versionID).Error; err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *GormProductRepository) ListVersions(productID uint64) ([]models.Version, error) {
	var versions []models.Version
	if err := r.db.Preload("Features").
		Where("product_id = ?", productID).
		Order("id").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *GormProductRepository) UpdateVersion(version *models.Version) error {
	return r.db.Save(version).Error
}

// DeleteVersion deletes a version with its features and their sprints
func (r *GormProductRepository) DeleteVersion(productID, versionID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		featureIDs := tx.Model(&models.Feature{}).Select("id").Where("version_id = ?", versionID)
		if err := deleteSprintsWhere(tx, "feature_id IN (?)", featureIDs); err != nil {
			return err
		}
		if err := tx.Where("version_id = ?", versionID).Delete(&models.Feature{}).Error; err != nil {
			return err
		}
		return tx.Where("product_id = ?", productID).Delete(&models.Version{}, versionID).Error
	})
}

func (r *GormProductRepository) CreateFeature(feature *models.Feature) error {
	return r.db.Create(feature).Error
}

// FindFeature finds a feature that belongs to productID
func (r *GormProductRepository) FindFeature(productID, featureID uint64) (*models.Feature, error) {
	var feature models.Feature
	if err := r.db.Where("product_id = ?", productID).First(&feature, featureID).Error; err != nil {
		return nil, err
	}
	return &feature, nil
}

func (r *GormProductRepository) ListFeatures(productID, versionID uint64) ([]models.Feature, error) {
	var features []models.Feature
	if err := r.db.Where("product_id = ? AND version_id = ?", productID, versionID).
		Order("id").
		Find(&features).Error; err != nil {
		return nil, err
	}
	return features, nil
}

// DeleteFeature deletes a feature with its sprints
func (r *GormProductRepository) DeleteFeature(productID, featureID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteSprintsWhere(tx, "feature_id = ?", featureID); err != nil {
			return err
		}
		return tx.Where("product_id = ?", productID).Delete(&models.Feature{}, featureID).Error
	})
}

// deleteSprintsWhere removes the sprints matching query and everything they own.
func deleteSprintsWhere(tx *gorm.DB, query string, args ...interface{}) error {
	sprintIDs := tx.Model(&models.Sprint{}).Select("id").Where(query, args...)
	taskIDs := tx.Model(&models.Task{}).Select("id").Where("sprint_id IN (?)", sprintIDs)

	if err := tx.Where("task_id IN (?) OR predecessor_id IN (?)", taskIDs, taskIDs).
		Delete(&models.TaskDependency{}).Error; err != nil {
		return err
	}
	if err := tx.Where("sprint_id IN (?)", sprintIDs).Delete(&models.Worklog{}).Error; err != nil {
		return err
	}
	if err := tx.Where("sprint_id IN (?)", sprintIDs).Delete(&models.Task{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&models.Sprint{}).Error
}
