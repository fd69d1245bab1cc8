package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

// ProductHandler serves products, their members and the version/feature tree.
type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProduct creates a new product owned by the current user
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProductRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.productService.CreateProduct(services.CreateProductInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProductDTO(*product, true))
}

// ListProducts returns all products the user is a member of
func (h *ProductHandler) ListProducts(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.productService.ListProductsForUser(userID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	products := make([]dto.ProductWithRoleDTO, len(memberships))
	for i, m := range memberships {
		products[i] = dto.ToProductWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct returns product details with its members
func (h *ProductHandler) GetProduct(c *gin.Context) {
	member, ok := middleware.GetProductMember(c)
	if !ok {
		apierrors.InternalError(c, "Product membership not found in context")
		return
	}

	product, members, err := h.productService.GetProductWithMembers(member.ProductID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductDetailDTO(*product, members, member.Role))
}

// UpdateProduct renames a product
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	type UpdateProductRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.productService.UpdateProductName(product.ID, req.Name)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductDTO(*updated, true))
}

// DeleteProduct deletes a product and everything planned in it
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	if err := h.productService.DeleteProduct(product.ID); err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// JoinProduct allows a user to join via invite code
func (h *ProductHandler) JoinProduct(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	product, err := h.productService.JoinProductByInvite(userID, req.InviteCode)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully joined product",
		"product": dto.ToProductDTO(*product, false),
	})
}

// RegenerateInviteCode generates a new invite code for the product
func (h *ProductHandler) RegenerateInviteCode(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	updated, err := h.productService.RegenerateInviteCode(product.ID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductDTO(*updated, true))
}

// RemoveMember removes a member from the product
func (h *ProductHandler) RemoveMember(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}
	actorID, _ := middleware.GetUserID(c)

	targetID, ok := uintParam(c, "user_id", "user ID")
	if !ok {
		return
	}

	if err := h.productService.RemoveMember(product.ID, actorID, targetID); err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// CreateVersion adds a version to the product
func (h *ProductHandler) CreateVersion(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	type VersionRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	version, err := h.productService.CreateVersion(product.ID, req.Name)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToVersionDTO(*version))
}

// ListVersions returns the versions of the product with their features
func (h *ProductHandler) ListVersions(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	versions, err := h.productService.ListVersions(product.ID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	items := make([]dto.VersionDTO, len(versions))
	for i, v := range versions {
		items[i] = dto.ToVersionDTO(v)
	}
	c.JSON(http.StatusOK, gin.H{"versions": items})
}

func (h *ProductHandler) RenameVersion(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}
	versionID, ok := uintParam(c, "version_id", "version ID")
	if !ok {
		return
	}

	type VersionRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	version, err := h.productService.RenameVersion(product.ID, versionID, req.Name)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToVersionDTO(*version))
}

// DeleteVersion deletes a version with its features and sprints
func (h *ProductHandler) DeleteVersion(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}
	versionID, ok := uintParam(c, "version_id", "version ID")
	if !ok {
		return
	}

	if err := h.productService.DeleteVersion(product.ID, versionID); err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Version deleted successfully"})
}

func (h *ProductHandler) CreateFeature(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}
	versionID, ok := uintParam(c, "version_id", "version ID")
	if !ok {
		return
	}

	type FeatureRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req FeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	feature, err := h.productService.CreateFeature(product.ID, versionID, req.Name)
	if err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFeatureDTO(*feature))
}

func (h *ProductHandler) ListFeatures(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}
	versionID, ok := uintParam(c, "version_id", "version ID")
	if !ok {
		return
	}

	features, err := h.productService.ListFeatures(product.ID, versionID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	items := make([]dto.FeatureDTO, len(features))
	for i, f := range features {
		items[i] = dto.ToFeatureDTO(f)
	}
	c.JSON(http.StatusOK, gin.H{"features": items})
}

// DeleteFeature deletes a feature with its sprints
func (h *ProductHandler) DeleteFeature(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}
	featureID, ok := uintParam(c, "feature_id", "feature ID")
	if !ok {
		return
	}

	if err := h.productService.DeleteFeature(product.ID, featureID); err != nil {
		respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feature deleted successfully"})
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProductName),
		errors.Is(err, services.ErrInvalidVersionName),
		errors.Is(err, services.ErrInvalidFeatureName),
		errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrProductMemberNotFound),
		errors.Is(err, services.ErrVersionNotFound),
		errors.Is(err, services.ErrFeatureNotFound),
		errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyProductMember):
		apierrors.Conflict(c, err.Error())
	default:
		internalError(c, err, "Failed to process product request")
	}
}
