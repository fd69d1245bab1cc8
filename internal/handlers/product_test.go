package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

func (suite *HandlerTestSuite) TestCreateAndListProducts() {
	w := suite.request(http.MethodPost, "/api/products", gin.H{"name": "Billing"}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var created dto.ProductDTO
	suite.decode(w, &created)
	suite.Equal("Billing", created.Name)
	suite.NotEmpty(created.InviteCode)

	w = suite.request(http.MethodGet, "/api/products", nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)

	var list struct {
		Products []dto.ProductWithRoleDTO `json:"products"`
	}
	suite.decode(w, &list)
	suite.Require().Len(list.Products, 2)

	roles := map[string]models.ProductRole{}
	for _, p := range list.Products {
		roles[p.Name] = p.Role
	}
	suite.Equal(models.RoleOwner, roles["Billing"])
	suite.Equal(models.RoleMember, roles["Planner"])

	w = suite.request(http.MethodPost, "/api/products", gin.H{"name": "   "}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetProduct_Access() {
	w := suite.request(http.MethodGet, productPath(suite.product.ID, ""), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)

	var detail dto.ProductDetailDTO
	suite.decode(w, &detail)
	suite.Len(detail.Members, 2)
	suite.Equal(models.RoleMember, detail.YourRole)
	suite.Empty(detail.InviteCode, "members do not see the invite code")

	w = suite.request(http.MethodGet, productPath(suite.product.ID, ""), nil, suite.owner)
	suite.decode(w, &detail)
	suite.Equal(suite.product.InviteCode, detail.InviteCode)

	w = suite.request(http.MethodGet, productPath(suite.product.ID, ""), nil, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, productPath(9999, ""), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/products/xyz", nil, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateProduct_OwnerOnly() {
	w := suite.request(http.MethodPut, productPath(suite.product.ID, ""), gin.H{"name": "Renamed"}, suite.member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPut, productPath(suite.product.ID, ""), gin.H{"name": "Renamed"}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var product dto.ProductDTO
	suite.decode(w, &product)
	suite.Equal("Renamed", product.Name)
}

func (suite *HandlerTestSuite) TestJoinAndMembers() {
	w := suite.request(http.MethodPost, "/api/products/join", gin.H{"invite_code": "NOPE0000"}, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/products/join", gin.H{"invite_code": suite.product.InviteCode}, suite.member)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, productPath(suite.product.ID, "/regenerate-code"), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var product dto.ProductDTO
	suite.decode(w, &product)
	suite.NotEqual(suite.product.InviteCode, product.InviteCode)

	w = suite.request(http.MethodPost, "/api/products/join", gin.H{"invite_code": suite.product.InviteCode}, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code, "the old code no longer works")

	w = suite.request(http.MethodPost, "/api/products/join", gin.H{"invite_code": product.InviteCode}, suite.outsider)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/members/"+uintString(suite.owner.ID)), nil, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/members/"+uintString(suite.outsider.ID)), nil, suite.member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/members/"+uintString(suite.outsider.ID)), nil, suite.owner)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, productPath(suite.product.ID, ""), nil, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestVersionsAndFeatures() {
	w := suite.request(http.MethodPost, productPath(suite.product.ID, "/versions"), gin.H{"name": "2.0"}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var version dto.VersionDTO
	suite.decode(w, &version)

	w = suite.request(http.MethodPut, productPath(suite.product.ID, "/versions/"+uintString(version.ID)), gin.H{"name": "2.1"}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &version)
	suite.Equal("2.1", version.Name)

	w = suite.request(http.MethodPost, productPath(suite.product.ID, "/versions/"+uintString(version.ID)+"/features"), gin.H{"name": "Export"}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var feature dto.FeatureDTO
	suite.decode(w, &feature)
	suite.Equal(version.ID, feature.VersionID)

	w = suite.request(http.MethodGet, productPath(suite.product.ID, "/versions"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var versions struct {
		Versions []dto.VersionDTO `json:"versions"`
	}
	suite.decode(w, &versions)
	suite.Len(versions.Versions, 2)

	w = suite.request(http.MethodGet, productPath(suite.product.ID, "/versions/"+uintString(version.ID)+"/features"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var features struct {
		Features []dto.FeatureDTO `json:"features"`
	}
	suite.decode(w, &features)
	suite.Require().Len(features.Features, 1)
	suite.Equal("Export", features.Features[0].Name)

	w = suite.request(http.MethodGet, productPath(suite.product.ID, "/versions/9999/features"), nil, suite.member)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/features/"+uintString(feature.ID)), nil, suite.member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/features/"+uintString(feature.ID)), nil, suite.owner)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/versions/"+uintString(version.ID)), nil, suite.owner)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, "/versions/"+uintString(version.ID)), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteProduct() {
	w := suite.request(http.MethodDelete, productPath(suite.product.ID, ""), nil, suite.member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, productPath(suite.product.ID, ""), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, productPath(suite.product.ID, ""), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)
}
