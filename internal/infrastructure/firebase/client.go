package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCM rejects multicasts above 500 tokens per call.
const fcmBatchLimit = 500

// TokenDeactivator marks an invalid device token as inactive. Supplied
// by the caller so this package never touches the repository directly.
type TokenDeactivator func(ctx context.Context, token string) error

// Client delivers push messages through Firebase Cloud Messaging.
type Client struct {
	msgClient   *messaging.Client
	deactivator TokenDeactivator
}

// NewClient initializes the Firebase app from a service-account file.
// deactivator may be nil, in which case stale tokens are only logged.
func NewClient(ctx context.Context, credentialsFile string, deactivator TokenDeactivator) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase messaging: %w", err)
	}

	return &Client{msgClient: msgClient, deactivator: deactivator}, nil
}

// Send pushes a notification to a single device token.
func (c *Client) Send(ctx context.Context, token string, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	}

	if _, err := c.msgClient.Send(ctx, msg); err != nil {
		if isStaleToken(err) {
			log.Printf("Stale FCM token, deactivating: %s", token)
			c.deactivateToken(ctx, token)
			return fmt.Errorf("invalid token: %w", err)
		}
		return fmt.Errorf("send FCM message: %w", err)
	}
	return nil
}

// SendMulticast pushes a notification to many device tokens, batching
// to stay under the FCM per-call limit.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	return c.sendBatches(ctx, tokens, func(batch []string) *messaging.MulticastMessage {
		return &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
		}
	})
}

// SendDataOnly pushes a silent data message with no OS notification.
// Foreground apps use these to refresh without alerting the user.
func (c *Client) SendDataOnly(ctx context.Context, tokens []string, data map[string]string) error {
	return c.sendBatches(ctx, tokens, func(batch []string) *messaging.MulticastMessage {
		return &messaging.MulticastMessage{Tokens: batch, Data: data}
	})
}

func (c *Client) sendBatches(ctx context.Context, tokens []string, build func([]string) *messaging.MulticastMessage) error {
	if len(tokens) == 0 {
		return nil
	}

	var sent, failed int
	for start := 0; start < len(tokens); start += fcmBatchLimit {
		end := start + fcmBatchLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		resp, err := c.msgClient.SendEachForMulticast(ctx, build(batch))
		if err != nil {
			return fmt.Errorf("send FCM multicast: %w", err)
		}

		sent += resp.SuccessCount
		failed += resp.FailureCount
		if resp.FailureCount > 0 {
			c.reapStaleTokens(ctx, batch, resp)
		}
	}

	log.Printf("FCM multicast: %d delivered, %d failed", sent, failed)
	return nil
}

// reapStaleTokens walks the per-token responses and deactivates tokens
// FCM reports as gone, so the next sync stops addressing them.
func (c *Client) reapStaleTokens(ctx context.Context, tokens []string, resp *messaging.BatchResponse) {
	for i, r := range resp.Responses {
		if r.Error == nil {
			continue
		}
		if isStaleToken(r.Error) {
			log.Printf("Stale FCM token, deactivating: %s", tokens[i])
			c.deactivateToken(ctx, tokens[i])
		} else {
			log.Printf("FCM send error for token %s: %v", tokens[i], r.Error)
		}
	}
}

func isStaleToken(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

func (c *Client) deactivateToken(ctx context.Context, token string) {
	if c.deactivator == nil {
		return
	}
	if err := c.deactivator(ctx, token); err != nil {
		log.Printf("Failed to deactivate FCM token %s: %v", token, err)
	}
}
