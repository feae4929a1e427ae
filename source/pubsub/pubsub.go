// Package pubsub turns messages on a gocloud subscription into change
// signals for the refresh loop. Publishers send any message to the topic
// after updating the remote store.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/pitabwire/natspubsub" // nats:// driver registration
	"github.com/pitabwire/util"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub" // mem:// driver registration

	"github.com/pitabwire/telereso/source"
)

const shutdownTimeout = time.Second

// Notifier listens on a subscription URL.
type Notifier struct {
	url string

	mu           sync.Mutex
	subscription *pubsub.Subscription
}

var _ source.Notifier = (*Notifier)(nil)

// New returns a Notifier for the subscription url, e.g. "mem://resources" or
// "nats://host:4222/resources?jetstream=true".
func New(url string) (*Notifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("subscription URL cannot be empty")
	}
	return &Notifier{url: url}, nil
}

// Watch opens the subscription and acknowledges every message it receives,
// emitting one change signal per message. The channel closes when ctx ends
// or the subscription fails.
func (n *Notifier) Watch(ctx context.Context) (<-chan struct{}, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subscription != nil {
		return nil, errors.New("subscription is already being watched")
	}

	subscription, err := pubsub.OpenSubscription(ctx, n.url)
	if err != nil {
		return nil, fmt.Errorf("could not open change subscription: %w", err)
	}
	n.subscription = subscription

	changes := make(chan struct{}, 1)
	go n.listen(ctx, subscription, changes)
	return changes, nil
}

func (n *Notifier) listen(ctx context.Context, subscription *pubsub.Subscription, changes chan<- struct{}) {
	log := util.Log(ctx).WithField("subscription", n.url)

	defer close(changes)
	defer n.shutdown(ctx, subscription)

	for {
		msg, err := subscription.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Error("change subscription stopped")
			}
			return
		}
		msg.Ack()

		select {
		case changes <- struct{}{}:
		default:
		}
	}
}

func (n *Notifier) shutdown(ctx context.Context, subscription *pubsub.Subscription) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := subscription.Shutdown(sctx); err != nil {
		util.Log(ctx).WithError(err).Debug("could not shut down change subscription")
	}

	n.mu.Lock()
	if n.subscription == subscription {
		n.subscription = nil
	}
	n.mu.Unlock()
}
