package services

import (
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

func (suite *ServiceTestSuite) TestProduct_Membership() {
	_, err := suite.products.JoinProductByInvite(suite.member.ID, suite.product.InviteCode)
	suite.ErrorIs(err, ErrAlreadyProductMember)

	_, err = suite.products.JoinProductByInvite(suite.member.ID, "nope")
	suite.ErrorIs(err, ErrInvalidInviteCode)

	memberships, err := suite.products.ListProductsForUser(suite.member.ID)
	suite.Require().NoError(err)
	suite.Require().Len(memberships, 1)
	suite.Equal(models.RoleMember, memberships[0].Role)
	suite.Equal("Planner", memberships[0].Product.Name)

	suite.ErrorIs(suite.products.RemoveMember(suite.product.ID, suite.owner.ID, suite.owner.ID), ErrCannotRemoveYourself)
	suite.Require().NoError(suite.products.RemoveMember(suite.product.ID, suite.owner.ID, suite.member.ID))
	suite.ErrorIs(suite.products.RemoveMember(suite.product.ID, suite.owner.ID, suite.member.ID), ErrProductMemberNotFound)

	_, members, err := suite.products.GetProductWithMembers(suite.product.ID)
	suite.Require().NoError(err)
	suite.Len(members, 1)
}

func (suite *ServiceTestSuite) TestProduct_RenameAndRegenerate() {
	_, err := suite.products.UpdateProductName(suite.product.ID, "  ")
	suite.ErrorIs(err, ErrInvalidProductName)

	product, err := suite.products.UpdateProductName(suite.product.ID, "Roadmap")
	suite.Require().NoError(err)
	suite.Equal("Roadmap", product.Name)

	old := product.InviteCode
	product, err = suite.products.RegenerateInviteCode(suite.product.ID)
	suite.Require().NoError(err)
	suite.NotEqual(old, product.InviteCode)

	_, err = suite.products.UpdateProductName(9999, "x")
	suite.ErrorIs(err, ErrProductNotFound)
}

func (suite *ServiceTestSuite) TestProduct_VersionsAndFeatures() {
	other, err := suite.products.CreateProduct(CreateProductInput{Name: "Other", OwnerID: suite.member.ID})
	suite.Require().NoError(err)

	versions, err := suite.products.ListVersions(suite.product.ID)
	suite.Require().NoError(err)
	suite.Require().Len(versions, 1)
	suite.Require().Len(versions[0].Features, 1)

	_, err = suite.products.CreateFeature(other.ID, versions[0].ID, "Stolen")
	suite.ErrorIs(err, ErrVersionNotFound)
	suite.ErrorIs(suite.products.DeleteVersion(other.ID, versions[0].ID), ErrVersionNotFound)
	suite.ErrorIs(suite.products.DeleteFeature(other.ID, suite.feature.ID), ErrFeatureNotFound)

	renamed, err := suite.products.RenameVersion(suite.product.ID, versions[0].ID, "2.0")
	suite.Require().NoError(err)
	suite.Equal("2.0", renamed.Name)

	suite.Require().NoError(suite.products.DeleteFeature(suite.product.ID, suite.feature.ID))
	_, err = suite.sprints.GetSprint(suite.sprint.ID)
	suite.ErrorIs(err, ErrSprintNotFound)

	features, err := suite.products.ListFeatures(suite.product.ID, versions[0].ID)
	suite.Require().NoError(err)
	suite.Empty(features)
}
