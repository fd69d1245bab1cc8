package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/database"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// RequireProductAccess checks if the user is a member of the product in :product_id
func RequireProductAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid product ID")
			return
		}

		var product models.Product
		if err := database.GetDB().First(&product, productID).Error; err != nil {
			apierrors.NotFound(c, "Product not found")
			return
		}

		member, ok := loadMembership(c, product.ID)
		if !ok {
			// Non-members get 404 and cannot tell which products exist
			apierrors.NotFound(c, "Product not found")
			return
		}

		c.Set(constants.ContextKeyProduct, product)
		c.Set(constants.ContextKeyProductMember, member)
		c.Next()
	}
}

// RequireProductOwner checks if the user is an owner of the product.
// It must run after one of the access middlewares.
func RequireProductOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetProductMember(c)
		if !ok {
			apierrors.Forbidden(c, "Product access required")
			return
		}
		if member.Role != models.RoleOwner {
			apierrors.Forbidden(c, "Only product owners can perform this action")
			return
		}
		c.Next()
	}
}

func GetProduct(c *gin.Context) (models.Product, bool) {
	v, exists := c.Get(constants.ContextKeyProduct)
	if !exists {
		return models.Product{}, false
	}
	product, ok := v.(models.Product)
	return product, ok
}

func GetProductMember(c *gin.Context) (models.ProductMember, bool) {
	v, exists := c.Get(constants.ContextKeyProductMember)
	if !exists {
		return models.ProductMember{}, false
	}
	member, ok := v.(models.ProductMember)
	return member, ok
}

// loadMembership finds the membership of the current user in productID.
func loadMembership(c *gin.Context, productID uint64) (models.ProductMember, bool) {
	var member models.ProductMember
	userID, exists := GetUserID(c)
	if !exists {
		return member, false
	}
	err := database.GetDB().
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&member).Error
	return member, err == nil
}
