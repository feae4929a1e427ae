package keys_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/keys"
)

type KeysSuite struct {
	suite.Suite
}

func TestKeysSuite(t *testing.T) {
	suite.Run(t, new(KeysSuite))
}

func (s *KeysSuite) TestNormalizeLocale() {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "dash separated", in: "en-US", want: "en_us"},
		{name: "already normalized", in: "pt_br", want: "pt_br"},
		{name: "dot separated", in: "EN.us", want: "en_us"},
		{name: "surrounding space", in: "  fr ", want: "fr"},
		{name: "script subtag", in: "zh-Hant-TW", want: "zh_hant_tw"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, keys.NormalizeLocale(tc.in))
		})
	}
}

func (s *KeysSuite) TestBaseLocale() {
	s.Equal("pt", keys.BaseLocale("pt_br"))
	s.Equal("zh", keys.BaseLocale("zh_hant_tw"))
	s.Equal("en", keys.BaseLocale("en"))
	s.Empty(keys.BaseLocale(""))
}

func (s *KeysSuite) TestGroupKeys() {
	s.Equal("strings_pt_br", keys.StringGroupKey("pt_br"))
	s.Equal("strings_es", keys.StringGroupKey(keys.NormalizeLocale("ES")))
	s.Equal("drawables_3x", keys.DrawableGroupKey("3x"))
}

func (s *KeysSuite) TestDensitySuffix() {
	testCases := []struct {
		name  string
		scale float64
		want  string
	}{
		{name: "integral", scale: 3, want: "3x"},
		{name: "fractional truncates", scale: 2.625, want: "2x"},
		{name: "below one", scale: 0.75, want: "1x"},
		{name: "zero", scale: 0, want: "1x"},
		{name: "nan", scale: math.NaN(), want: "1x"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, keys.DensitySuffix(tc.scale))
		})
	}
}

func (s *KeysSuite) TestIsDisabledKey() {
	s.True(keys.IsDisabledKey("strings_fr_off"))
	s.True(keys.IsDisabledKey("strings_off"))
	s.False(keys.IsDisabledKey("strings_fr"))
	s.False(keys.IsDisabledKey("strings_offset"))
	s.False(keys.IsDisabledKey("strings_coffee"))
}
