package provider

import (
	"context"
	"fmt"

	"github.com/famboard/dispatch-engine/internal/domain"
)

// Message is the channel-agnostic payload handed to a transport. Destination
// is the preference's address: an email address, a phone number, or for PUSH
// a serialized subscription.
type Message struct {
	Channel     domain.Channel
	Destination string
	Subject     string
	Body        string
}

// SendResult carries provider call metadata kept on the ledger entry.
type SendResult struct {
	MessageID  string
	StatusCode int
}

// Provider is the outbound delivery port, one implementation per channel.
type Provider interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

// Registry resolves the transport for a channel. New channels register a new
// provider; the fan-out never branches on channel itself.
type Registry struct {
	providers map[domain.Channel]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[domain.Channel]Provider)}
}

func (r *Registry) Register(channel domain.Channel, p Provider) {
	if r.providers == nil {
		r.providers = make(map[domain.Channel]Provider)
	}
	r.providers[channel] = p
}

func (r *Registry) For(channel domain.Channel) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("provider registry is not initialized")
	}
	p, ok := r.providers[channel]
	if !ok {
		return nil, fmt.Errorf("no provider registered for channel %s", channel)
	}
	return p, nil
}
