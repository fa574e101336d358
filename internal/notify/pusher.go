// Package notify delivers one logical event to a set of recipients:
// a durable notification record per recipient plus a best-effort push
// to every registered device token.
package notify

import (
	"context"
	"log/slog"
)

// DeliveryStatus classifies the per-token outcome of a push attempt.
type DeliveryStatus int

const (
	// DeliveryOK means the token accepted the message.
	DeliveryOK DeliveryStatus = iota
	// DeliveryUnregistered means the token is invalid or no longer
	// registered and should be pruned from the recipient's set.
	DeliveryUnregistered
	// DeliveryTransient means the channel failed temporarily; the
	// token is kept and no retry is attempted.
	DeliveryTransient
)

// DeliveryResult is the outcome for one device token.
type DeliveryResult struct {
	Token  string
	Status DeliveryStatus
}

// Pusher is the push notification channel. Send multicasts one message
// to all given tokens and reports a per-token result. A non-nil error
// means the whole multicast failed (channel outage).
type Pusher interface {
	Send(ctx context.Context, tokens []string, title, body string) ([]DeliveryResult, error)
}

// LogPusher is a stand-in channel for local runs without push
// credentials: it logs each multicast and reports every token as
// delivered.
type LogPusher struct {
	Logger *slog.Logger
}

func (p *LogPusher) Send(_ context.Context, tokens []string, title, _ string) ([]DeliveryResult, error) {
	if p.Logger != nil {
		p.Logger.Info("push delivery (log only)", "tokens", len(tokens), "title", title)
	}
	results := make([]DeliveryResult, len(tokens))
	for i, token := range tokens {
		results[i] = DeliveryResult{Token: token, Status: DeliveryOK}
	}
	return results, nil
}
