package source_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/source"
)

type OptionsSuite struct {
	suite.Suite
}

func TestOptionsSuite(t *testing.T) {
	suite.Run(t, new(OptionsSuite))
}

func (s *OptionsSuite) TestKeyPattern() {
	testCases := []struct {
		name      string
		namespace string
		prefix    string
		expected  string
	}{
		{name: "plain namespace", namespace: "app:", prefix: "strings", expected: "app:strings*"},
		{name: "no namespace", prefix: "drawables", expected: "drawables*"},
		{name: "star and question mark", namespace: "a*b?:", prefix: "strings", expected: `a\*b\?:strings*`},
		{name: "character class", namespace: "[prod]:", prefix: "strings", expected: `\[prod\]:strings*`},
		{name: "backslash", namespace: `tenant\1:`, prefix: "strings", expected: `tenant\\1:strings*`},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, source.KeyPattern(tc.namespace, tc.prefix))
		})
	}
}

func (s *OptionsSuite) TestMatches() {
	opts := source.ApplyTransportOptions()
	s.True(opts.Matches("strings_en"))
	s.True(opts.Matches("drawables"))
	s.False(opts.Matches("other"))

	opts = source.ApplyTransportOptions(source.WithPrefixes())
	s.True(opts.Matches("other"))
}
