package errors_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/driftlands/worldsim/internal/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestValidationError() {
	ve := errors.NewValidationError()
	ve.AddFieldError("Store", "is required")
	ve.AddFieldError("SpawnRoomID", "is invalid")
	ve.AddFieldErrorf("TickInterval", "must be at least %dms", 100)

	s.Assert().True(ve.HasErrors())
	s.Assert().Contains(ve.Error(), "Store: is required")
	s.Assert().Contains(ve.Error(), "SpawnRoomID: is invalid")
	s.Assert().Contains(ve.Error(), "TickInterval: must be at least 100ms")

	err := ve.ToError()
	s.Assert().Equal(errors.CodeInvalidArgument, err.Code)
	s.Assert().NotNil(err.Meta["validation_errors"])
}

func (s *ValidationTestSuite) TestValidationBuilder() {
	vb := errors.NewValidationBuilder()
	vb.Field("Clock", "is required").
		Fieldf("WorkerPoolSize", "must be between %d and %d", 1, 64).
		RequiredField("IDGenerator").
		InvalidField("Zone", "not a valid zone tag")

	err := vb.Build()
	s.Require().NotNil(err)
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *ValidationTestSuite) TestValidationBuilderNoErrors() {
	vb := errors.NewValidationBuilder()
	err := vb.Build()
	s.Assert().Nil(err)
}

func (s *ValidationTestSuite) TestValidateRequired() {
	testCases := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"valid value", "haven_square", false},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"valid with spaces", "  haven_square  ", false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			vb := errors.NewValidationBuilder()
			errors.ValidateRequired("field", tc.value, vb)
			err := vb.Build()
			if tc.shouldErr {
				s.Assert().NotNil(err)
			} else {
				s.Assert().Nil(err)
			}
		})
	}
}

func (s *ValidationTestSuite) TestValidateMinLength() {
	vb := errors.NewValidationBuilder()
	errors.ValidateMinLength("player_id", "p", 3, vb)
	errors.ValidateMinLength("room_id", "haven_gate", 3, vb)

	err := vb.Build()
	s.Require().NotNil(err)
	meta := errors.GetMeta(err)
	validationErrors := meta["validation_errors"].(map[string][]string)
	s.Assert().Contains(validationErrors["player_id"][0], "must be at least 3 characters")
	s.Assert().NotContains(validationErrors, "room_id")
}

func (s *ValidationTestSuite) TestValidateMaxLength() {
	vb := errors.NewValidationBuilder()
	errors.ValidateMaxLength("title", "an event title well past the ring buffer display width", 20, vb)
	errors.ValidateMaxLength("verb", "move", 16, vb)

	err := vb.Build()
	s.Require().NotNil(err)
	meta := errors.GetMeta(err)
	validationErrors := meta["validation_errors"].(map[string][]string)
	s.Assert().Contains(validationErrors["title"][0], "must be no more than 20 characters")
	s.Assert().NotContains(validationErrors, "verb")
}

func (s *ValidationTestSuite) TestValidateRange() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRange("heat", 120, 0, 100, vb)
	errors.ValidateRange("hunger", 50, 0, 100, vb)
	errors.ValidateRange("wanted_level", 7, 0, 5, vb)

	err := vb.Build()
	s.Require().NotNil(err)
	meta := errors.GetMeta(err)
	validationErrors := meta["validation_errors"].(map[string][]string)
	s.Assert().Contains(validationErrors["heat"][0], "must be between 0 and 100")
	s.Assert().Contains(validationErrors["wanted_level"][0], "must be between 0 and 5")
	s.Assert().NotContains(validationErrors, "hunger")
}

func (s *ValidationTestSuite) TestValidateEnum() {
	allowedZones := []string{"city", "wild"}

	vb := errors.NewValidationBuilder()
	errors.ValidateEnum("zone", "orbital", allowedZones, vb)
	errors.ValidateEnum("spawn_zone", "city", allowedZones, vb)

	err := vb.Build()
	s.Require().NotNil(err)
	meta := errors.GetMeta(err)
	validationErrors := meta["validation_errors"].(map[string][]string)
	s.Assert().Contains(validationErrors["zone"][0], "must be one of: city, wild")
	s.Assert().NotContains(validationErrors, "spawn_zone")
}

func (s *ValidationTestSuite) TestComplexValidation() {
	type seedRoom struct {
		ID     string
		Zone   string
		CityID string
		Safety int
	}

	input := seedRoom{
		ID:     "",
		Zone:   "orbital",
		Safety: 250,
	}

	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("id", input.ID, vb)
	errors.ValidateEnum("zone", input.Zone, []string{"city", "wild"}, vb)
	errors.ValidateRange("safety", input.Safety, 0, 100, vb)

	err := vb.Build()
	s.Require().NotNil(err)
	s.Assert().True(errors.IsInvalidArgument(err))

	meta := errors.GetMeta(err)
	validationErrors := meta["validation_errors"].(map[string][]string)
	s.Assert().Contains(validationErrors, "id")
	s.Assert().Contains(validationErrors, "zone")
	s.Assert().Contains(validationErrors, "safety")
}
