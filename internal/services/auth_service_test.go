package services

import (
	"time"
)

func (suite *ServiceTestSuite) TestSignup_CreatesDefaultWorkWeek() {
	user, err := suite.auth.Signup(SignupInput{Username: "  carol ", Password: "password123"})
	suite.Require().NoError(err)
	suite.Equal("carol", user.Username)
	suite.NotEqual("password123", user.PasswordHash)

	week, err := suite.calRepo.FindWorkWeek(user.ID)
	suite.Require().NoError(err)
	suite.Equal([]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, week.Weekdays())
	suite.Equal(hours(8), week.HoursPerDay)

	logged, err := suite.auth.Login(LoginInput{Username: "carol", Password: "password123"})
	suite.Require().NoError(err)
	suite.Equal(user.ID, logged.ID)
}

func (suite *ServiceTestSuite) TestSignup_Validation() {
	_, err := suite.auth.Signup(SignupInput{Username: " ", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameRequired)

	_, err = suite.auth.Signup(SignupInput{Username: "dave", Password: "short"})
	suite.ErrorIs(err, ErrPasswordTooShort)

	_, err = suite.auth.Signup(SignupInput{Username: "owner", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameTaken)
}

func (suite *ServiceTestSuite) TestLogin_InvalidCredentials() {
	_, err := suite.auth.Login(LoginInput{Username: "nobody", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	// owner was created with a hash that matches no password
	_, err = suite.auth.Login(LoginInput{Username: "owner", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.auth.GetUser(9999)
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *ServiceTestSuite) TestSignup_CustomWorkWeek() {
	user, err := suite.auth.Signup(SignupInput{
		Username:    "erin",
		Password:    "password123",
		WorkDays:    []time.Weekday{time.Saturday, time.Sunday},
		HoursPerDay: hours(6),
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(user.WorkWeek)

	found, err := suite.auth.GetUser(user.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(found.WorkWeek)
	suite.Equal([]time.Weekday{time.Sunday, time.Saturday}, found.WorkWeek.Weekdays())
	suite.Equal(hours(6), found.WorkWeek.HoursPerDay)

	_, err = suite.auth.Signup(SignupInput{Username: "frank", Password: "password123", WorkDays: []time.Weekday{}})
	suite.ErrorIs(err, ErrEmptyWorkWeek)

	_, err = suite.auth.Signup(SignupInput{Username: "frank", Password: "password123", HoursPerDay: hours(25)})
	suite.ErrorIs(err, ErrInvalidHoursPerDay)
}
