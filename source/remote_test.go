package source_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/source/memory"
)

type RemoteSuite struct {
	suite.Suite
}

func TestRemoteSuite(t *testing.T) {
	suite.Run(t, new(RemoteSuite))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (s *RemoteSuite) TestFetchThrottlesWithinMinimumInterval() {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	fetcher := memory.New(map[string]string{"strings": `{"hello":"Hi"}`})

	remote := source.NewRemote(fetcher,
		source.WithSettings(source.Settings{MinimumFetchInterval: time.Minute}),
		source.WithClock(clock.Now),
	)

	first, err := remote.Fetch(ctx)
	s.Require().NoError(err)
	s.Equal(1, fetcher.Loads())

	fetcher.Set("strings", `{"hello":"Hey"}`)
	second, err := remote.Fetch(ctx)
	s.Require().NoError(err)
	s.Same(first, second)
	s.Equal(1, fetcher.Loads())

	clock.Advance(2 * time.Minute)
	third, err := remote.Fetch(ctx)
	s.Require().NoError(err)
	s.Equal(2, fetcher.Loads())
	s.Equal(`{"hello":"Hey"}`, third.Value("strings"))
}

func (s *RemoteSuite) TestZeroIntervalAlwaysFetches() {
	ctx := context.Background()
	fetcher := memory.New(nil)
	remote := source.NewRemote(fetcher, source.WithSettings(source.RealtimeSettings()))

	for range 3 {
		_, err := remote.Fetch(ctx)
		s.Require().NoError(err)
	}
	s.Equal(3, fetcher.Loads())
}

func (s *RemoteSuite) TestFetchFailureIsWrapped() {
	fetcher := memory.New(nil)
	boom := errors.New("connection refused")
	fetcher.FailWith(boom)

	remote := source.NewRemote(fetcher)
	blob, err := remote.Fetch(context.Background())
	s.Nil(blob)
	s.ErrorIs(err, source.ErrFetchFailed)
	s.ErrorIs(err, boom)
}

func (s *RemoteSuite) TestActivateReportsChange() {
	ctx := context.Background()
	remote := source.NewRemote(memory.New(nil), source.WithDefaults(map[string]string{"strings": `{}`}))

	s.Equal(`{}`, remote.Active().Value("strings"))

	changed, err := remote.Activate(ctx, source.NewBlob(map[string]string{"strings": `{}`}))
	s.Require().NoError(err)
	s.False(changed)

	changed, err = remote.Activate(ctx, source.NewBlob(map[string]string{"strings": `{"a":"b"}`}))
	s.Require().NoError(err)
	s.True(changed)

	_, err = remote.Activate(ctx, nil)
	s.ErrorIs(err, source.ErrNilBlob)
}

func (s *RemoteSuite) TestSettingsRoundTrip() {
	remote := source.NewRemote(memory.New(nil))
	s.Equal(source.DefaultSettings(), remote.Settings())

	remote.SetSettings(source.RealtimeSettings())
	s.Zero(remote.Settings().MinimumFetchInterval)
}

func (s *RemoteSuite) TestBlobKeysAndParse() {
	blob := source.NewBlob(map[string]string{
		"strings_pt":     "{}",
		"strings_pt_off": "{}",
		"strings_es":     "{}",
		"drawables":      "{}",
	})

	s.Equal([]string{"strings_pt", "strings_pt_off"}, blob.Keys("strings_pt"))
	s.Equal(4, blob.Len())
	s.Empty(blob.Value("missing"))

	values, err := source.ParseGroup(`{"hello":"Hi","count":3,"nested":{"a":"b"}}`)
	s.Require().NoError(err)
	s.Equal(map[string]string{"hello": "Hi"}, values)

	values, err = source.ParseGroup("  ")
	s.Require().NoError(err)
	s.Empty(values)

	values, err = source.ParseGroup(`["not","a","map"]`)
	s.ErrorIs(err, source.ErrMalformedBlob)
	s.NotNil(values)
	s.Empty(values)

	_, err = source.ParseGroup(`null`)
	s.ErrorIs(err, source.ErrMalformedBlob)

	encoded, err := source.EncodeGroup(map[string]string{"hello": "Hi"})
	s.Require().NoError(err)
	s.JSONEq(`{"hello":"Hi"}`, encoded)
}

func (s *RemoteSuite) TestMemoryWatchSignalsChanges() {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := memory.New(nil)

	changes, err := fetcher.Watch(ctx)
	s.Require().NoError(err)

	s.Require().NoError(fetcher.SetGroup("strings", map[string]string{"hello": "Hi"}))

	select {
	case <-changes:
	case <-time.After(time.Second):
		s.Fail("expected a change signal")
	}

	cancel()
	s.Eventually(func() bool {
		select {
		case _, open := <-changes:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
