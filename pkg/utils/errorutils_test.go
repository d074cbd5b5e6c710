package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorUtilsSuite struct {
	suite.Suite
}

func TestErrorUtilsSuite(t *testing.T) {
	suite.Run(t, new(ErrorUtilsSuite))
}

func wrapTwice(err error) error {
	return WrapIfNotNil(WrapIfNotNil(err), "generate")
}

func (s *ErrorUtilsSuite) TestWrapIfNotNilNil() {
	s.NoError(WrapIfNotNil(nil))
}

func (s *ErrorUtilsSuite) TestWrapIfNotNilNamesCaller() {
	base := errors.New("404 not found")

	err := wrapTwice(base)

	s.ErrorIs(err, base)
	s.Contains(err.Error(), "utils.wrapTwice - generate: ")
	s.Contains(err.Error(), "404 not found")
}

func (s *ErrorUtilsSuite) TestCauseStripsOnlyCallerLayers() {
	base := errors.New("quota exceeded")
	annotated := fmt.Errorf("gemini: %w", base)

	s.Equal(base, Cause(wrapTwice(base)))
	s.Equal(annotated, Cause(wrapTwice(annotated)))
	s.Nil(Cause(nil))
}
