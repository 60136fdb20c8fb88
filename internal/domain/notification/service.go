package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
// Creates default notification preferences if none exist.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	token, err := s.repo.UpsertDeviceToken(ctx, params)
	if err != nil {
		return nil, err
	}

	// Ensure notification preferences exist for this user
	_, err = s.repo.GetPreferences(ctx, params.UserID)
	if err != nil {
		// Create default preferences
		_, err = s.repo.UpsertPreferences(ctx, params.UserID, UpdatePreferenceParams{})
		if err != nil {
			log.Printf("Warning: failed to create default notification preferences for user %s: %v", params.UserID, err)
		}
	}

	return token, nil
}

// GetPreferences returns the notification preferences for a user.
// Returns default (all-enabled) preferences if none have been created yet.
func (s *Service) GetPreferences(ctx context.Context, userID string) (*NotificationPreference, error) {
	if userID == "" {
		return nil, errors.New("valid user ID is required")
	}

	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		// Return defaults if not found
		return &NotificationPreference{
			UserID:              userID,
			ConnectionsEnabled:  true,
			GeneralEnabled:      true,
			AccountsEnabled:     true,
			TransactionsEnabled: true,
		}, nil
	}

	return prefs, nil
}

// UpdatePreferences updates notification preferences for a user
func (s *Service) UpdatePreferences(ctx context.Context, userID string, params UpdatePreferenceParams) (*NotificationPreference, error) {
	if userID == "" {
		return nil, errors.New("valid user ID is required")
	}

	return s.repo.UpsertPreferences(ctx, userID, params)
}

// ListNotifications returns paginated notifications for a user
func (s *Service) ListNotifications(ctx context.Context, userID string, page, perPage int) ([]*Notification, int, error) {
	if userID == "" {
		return nil, 0, errors.New("valid user ID is required")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return s.repo.ListByUserID(ctx, userID, page, perPage)
}

// MarkNotificationOpened marks a notification as opened by the authenticated user
func (s *Service) MarkNotificationOpened(ctx context.Context, notificationID, userID string) error {
	if notificationID == "" {
		return errors.New("notification ID is required")
	}
	if userID == "" {
		return errors.New("valid user ID is required")
	}

	return s.repo.MarkOpened(ctx, notificationID, userID)
}

// SendToUser sends a push notification to a specific user.
// Respects notification preferences and creates a notification record.
func (s *Service) SendToUser(ctx context.Context, userID, title, body, category string, data map[string]string) error {
	if !IsValidCategory(category) {
		return ErrInvalidCategory
	}

	// Check preferences
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}

	if !prefs.IsCategoryEnabled(category) {
		log.Printf("Notification skipped for user %s: category %q disabled", userID, category)
		return nil
	}

	// Get active device tokens
	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		log.Printf("No active device tokens for user %s", userID)
		return nil
	}

	// Add route from category if not present
	if data == nil {
		data = make(map[string]string)
	}
	if _, ok := data["route"]; !ok {
		data["route"] = category
	}

	// Send to all active tokens via FCM (if messenger is configured)
	if s.messenger != nil {
		tokenStrings := make([]string, len(tokens))
		for i, t := range tokens {
			tokenStrings[i] = t.Token
		}

		if err := s.messenger.SendMulticast(ctx, tokenStrings, title, body, data); err != nil {
			log.Printf("Error sending notification to user %s: %v", userID, err)
		}
	}

	// Store notification record
	_, err = s.repo.CreateNotification(ctx, CreateNotificationParams{
		UserID:   userID,
		Title:    title,
		Message:  body,
		Category: category,
		Data:     data,
	})
	if err != nil {
		log.Printf("Error storing notification for user %s: %v", userID, err)
	}

	return nil
}

// Connection lifecycle events. These are fired from the sync engine and
// the webhook ingestor; delivery failures are logged, never propagated,
// so a broken push channel can't break a sync.

// ItemDeactivated notifies the user that a connection was turned off.
func (s *Service) ItemDeactivated(ctx context.Context, userID, institutionName, reason string) {
	title := "Connection disabled"
	body := fmt.Sprintf("Your connection to %s has been disabled. Reconnect to resume syncing.", institutionName)
	s.fireAndLog(ctx, userID, title, body, map[string]string{"reason": reason})
}

// ItemError notifies the user that their institution reported an error.
func (s *Service) ItemError(ctx context.Context, userID, institutionName, errorCode string) {
	title := "Connection needs attention"
	body := fmt.Sprintf("We hit a problem syncing %s. You may need to sign in again.", institutionName)
	s.fireAndLog(ctx, userID, title, body, map[string]string{"error_code": errorCode})
}

// PendingExpiration warns the user their institution consent is about to lapse.
func (s *Service) PendingExpiration(ctx context.Context, userID, institutionName string) {
	title := "Connection expiring soon"
	body := fmt.Sprintf("Your access to %s expires soon. Reconnect to keep your data in sync.", institutionName)
	s.fireAndLog(ctx, userID, title, body, nil)
}

// PermissionRevoked tells the user their institution access was revoked.
func (s *Service) PermissionRevoked(ctx context.Context, userID, institutionName string) {
	title := "Connection revoked"
	body := fmt.Sprintf("Access to %s was revoked. Reconnect if this wasn't you.", institutionName)
	s.fireAndLog(ctx, userID, title, body, nil)
}

// SyncCompleted pushes a silent data-only message so open apps can
// refresh their balances without an OS notification.
func (s *Service) SyncCompleted(ctx context.Context, userID string) {
	if s.messenger == nil {
		return
	}

	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil || len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	data := map[string]string{"event": "sync_completed"}
	if err := s.messenger.SendDataOnly(ctx, tokenStrings, data); err != nil {
		log.Printf("Error sending sync refresh to user %s: %v", userID, err)
	}
}

func (s *Service) fireAndLog(ctx context.Context, userID, title, body string, data map[string]string) {
	if err := s.SendToUser(ctx, userID, title, body, CategoryConnections, data); err != nil {
		log.Printf("Error delivering connection notification to user %s: %v", userID, err)
	}
}
