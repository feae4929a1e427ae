package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/source/memory"
)

type MemorySuite struct {
	suite.Suite
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) TestLoadReturnsCopies() {
	ctx := context.Background()
	seed := map[string]string{"strings": `{"hello":"Hi"}`}
	fetcher := memory.New(seed)
	seed["strings"] = "changed"

	values, err := fetcher.Load(ctx)
	s.Require().NoError(err)
	s.JSONEq(`{"hello":"Hi"}`, values["strings"])

	values["strings"] = "mutated"
	again, err := fetcher.Load(ctx)
	s.Require().NoError(err)
	s.JSONEq(`{"hello":"Hi"}`, again["strings"])
	s.Equal(2, fetcher.Loads())
}

func (s *MemorySuite) TestSetGroupAndDelete() {
	ctx := context.Background()
	fetcher := memory.New(nil)

	s.Require().NoError(fetcher.SetGroup("strings_es", map[string]string{"hello": "Hola"}))
	values, err := fetcher.Load(ctx)
	s.Require().NoError(err)

	group, err := source.ParseGroup(values["strings_es"])
	s.Require().NoError(err)
	s.Equal(map[string]string{"hello": "Hola"}, group)

	fetcher.Delete("strings_es")
	values, err = fetcher.Load(ctx)
	s.Require().NoError(err)
	s.Empty(values)
}

func (s *MemorySuite) TestFailures() {
	fetcher := memory.New(nil)
	offline := errors.New("offline")

	fetcher.FailWith(offline)
	_, err := fetcher.Load(context.Background())
	s.Require().ErrorIs(err, offline)

	fetcher.FailWith(nil)
	_, err = fetcher.Load(context.Background())
	s.Require().NoError(err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetcher.Load(cancelled)
	s.Require().ErrorIs(err, context.Canceled)
}

func (s *MemorySuite) TestWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := memory.New(nil)

	changes, err := fetcher.Watch(ctx)
	s.Require().NoError(err)

	fetcher.Set("strings", `{}`)
	select {
	case _, ok := <-changes:
		s.True(ok)
	case <-time.After(time.Second):
		s.Fail("no change signal")
	}

	cancel()
	s.Eventually(func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	s.Require().NoError(fetcher.Close())
}
