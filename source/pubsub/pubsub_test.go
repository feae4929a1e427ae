package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	gopubsub "gocloud.dev/pubsub"

	"github.com/pitabwire/telereso/source/pubsub"
)

type NotifierSuite struct {
	suite.Suite
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierSuite))
}

func (s *NotifierSuite) TestEmptyURL() {
	_, err := pubsub.New("  ")
	s.Error(err)
}

func (s *NotifierSuite) TestMessagesSignalChanges() {
	ctx, cancel := context.WithCancel(s.T().Context())
	defer cancel()

	topic, err := gopubsub.OpenTopic(ctx, "mem://resource-changes")
	s.Require().NoError(err)
	defer func() { _ = topic.Shutdown(context.Background()) }()

	notifier, err := pubsub.New("mem://resource-changes")
	s.Require().NoError(err)

	changes, err := notifier.Watch(ctx)
	s.Require().NoError(err)

	_, err = notifier.Watch(ctx)
	s.Error(err)

	s.Require().NoError(topic.Send(ctx, &gopubsub.Message{Body: []byte("strings_fr")}))

	select {
	case _, ok := <-changes:
		s.True(ok)
	case <-time.After(5 * time.Second):
		s.Fail("no change signalled")
	}

	cancel()
	s.Eventually(func() bool {
		select {
		case _, open := <-changes:
			return !open
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
}

func (s *NotifierSuite) TestUnknownTopic() {
	notifier, err := pubsub.New("mem://missing-topic")
	s.Require().NoError(err)

	_, err = notifier.Watch(s.T().Context())
	s.Error(err)
}
