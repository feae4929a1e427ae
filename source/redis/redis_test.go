package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/data"
	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/sourcetests"
)

type RedisSuite struct {
	sourcetests.ContainerSuite
	dsn data.DSN
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	s.InitResourceFunc = func(_ context.Context) []sourcetests.Resource {
		return []sourcetests.Resource{sourcetests.NewValkey()}
	}
	s.ContainerSuite.SetupSuite()

	s.dsn = s.DSN(data.DSN.IsRedis)
	s.Require().NotEmpty(s.dsn.String())
}

func (s *RedisSuite) TestLoad() {
	ctx := s.T().Context()

	_, err := New(ctx, source.WithDSN("://bad-dsn"))
	s.Require().Error(err)

	fetcher, err := New(ctx, source.WithDSN(s.dsn), source.WithName("redis:"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = fetcher.Close() })

	empty, err := fetcher.Load(ctx)
	s.Require().NoError(err)
	s.Empty(empty)

	s.Require().NoError(fetcher.Set(ctx, "strings", `{"hello":"Hello"}`))
	s.Require().NoError(fetcher.Set(ctx, "drawables_3x", `{"logo":"https://cdn.example.com/logo@3x.png"}`))

	values, err := fetcher.Load(ctx)
	s.Require().NoError(err)
	s.Equal(map[string]string{
		"strings":      `{"hello":"Hello"}`,
		"drawables_3x": `{"logo":"https://cdn.example.com/logo@3x.png"}`,
	}, values)

	s.Require().NoError(fetcher.Delete(ctx, "drawables_3x"))
	values, err = fetcher.Load(ctx)
	s.Require().NoError(err)
	s.Len(values, 1)
}
