package telereso

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type FormatArgsSuite struct {
	suite.Suite
}

func TestFormatArgsSuite(t *testing.T) {
	suite.Run(t, new(FormatArgsSuite))
}

func (s *FormatArgsSuite) TestFormatArgCount() {
	testCases := []struct {
		name     string
		format   string
		expected int
		ok       bool
	}{
		{name: "no placeholders", format: "Welcome", expected: 0, ok: true},
		{name: "literal percent", format: "100%% done", expected: 0, ok: true},
		{name: "plain verbs", format: "Welcome %v, you have %d messages", expected: 2, ok: true},
		{name: "flags width precision", format: "%-8s|%+.2f|%05d", expected: 3, ok: true},
		{name: "star width consumes", format: "%*d", expected: 2, ok: true},
		{name: "star precision consumes", format: "%.*f", expected: 2, ok: true},
		{name: "trailing percent", format: "50%", expected: 0, ok: true},
		{name: "explicit index", format: "%[2]v %[1]v", ok: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			count, ok := formatArgCount(tc.format)
			s.Equal(tc.ok, ok)
			s.Equal(tc.expected, count)
		})
	}
}
