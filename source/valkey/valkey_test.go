package valkey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/data"
	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/sourcetests"
)

type ValkeySuite struct {
	sourcetests.ContainerSuite
	dsn data.DSN
}

func TestValkeySuite(t *testing.T) {
	suite.Run(t, new(ValkeySuite))
}

func (s *ValkeySuite) SetupSuite() {
	s.InitResourceFunc = func(_ context.Context) []sourcetests.Resource {
		return []sourcetests.Resource{sourcetests.NewValkey()}
	}
	s.ContainerSuite.SetupSuite()

	s.dsn = s.DSN(data.DSN.IsRedis)
	s.Require().NotEmpty(s.dsn.String())
}

func (s *ValkeySuite) TestLoad() {
	ctx := s.T().Context()

	_, err := New(ctx, source.WithDSN("://bad-dsn"))
	s.Require().Error(err)

	valkeyDSN, err := s.dsn.WithScheme(data.ValkeyScheme)
	s.Require().NoError(err)

	testCases := []struct {
		name      string
		dsn       data.DSN
		namespace string
	}{
		{name: "redis scheme", dsn: s.dsn},
		{name: "valkey scheme with namespace", dsn: valkeyDSN, namespace: "app1:"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			fetcher, newErr := New(ctx, source.WithDSN(tc.dsn), source.WithName(tc.namespace))
			s.Require().NoError(newErr)
			defer func() { _ = fetcher.Close() }()

			s.Require().NoError(fetcher.Set(ctx, "strings", `{"hello":"Hello"}`))
			s.Require().NoError(fetcher.Set(ctx, "strings_de", `{"hello":"Hallo"}`))
			s.Require().NoError(fetcher.Set(ctx, "drawables_1x", `{"logo":"https://cdn.example.com/logo.png"}`))
			s.Require().NoError(fetcher.Set(ctx, "unrelated", "x"))

			values, loadErr := fetcher.Load(ctx)
			s.Require().NoError(loadErr)
			s.Equal(`{"hello":"Hallo"}`, values["strings_de"])
			s.Contains(values, "strings")
			s.Contains(values, "drawables_1x")
			s.NotContains(values, "unrelated")

			s.Require().NoError(fetcher.Delete(ctx, "strings_de"))
			values, loadErr = fetcher.Load(ctx)
			s.Require().NoError(loadErr)
			s.NotContains(values, "strings_de")
		})
	}
}
