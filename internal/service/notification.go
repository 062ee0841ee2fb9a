package service

import (
	"context"
	"fmt"
	"log"
	"time"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationCredentialReset NotificationType = "CREDENTIAL_RESET"
	NotificationDriverWelcome   NotificationType = "DRIVER_WELCOME"
	NotificationAccountBlocked  NotificationType = "ACCOUNT_BLOCKED"
	NotificationAccountRestored NotificationType = "ACCOUNT_RESTORED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type      NotificationType
	Recipient string // email address or identity id
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Email client (SendGrid)
	// - SMS client (Twilio)
	// - Push notification client (FCM, APNS)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyCredentialReset tells a newly provisioned driver to reset the
// temporary credential at the synthesized login email.
func (s *NotificationService) NotifyCredentialReset(ctx context.Context, email, driverName string) error {
	return s.send(ctx, Notification{
		Type:      NotificationCredentialReset,
		Recipient: email,
		Title:     "Set your password",
		Message:   fmt.Sprintf("Hi %s, your driver account is ready. Use the reset link to set your password.", driverName),
		Data:      map[string]interface{}{"email": email},
		CreatedAt: time.Now(),
	})
}

// NotifyDriverWelcome greets a driver after first successful phone login.
func (s *NotificationService) NotifyDriverWelcome(ctx context.Context, identityID, driverName string) error {
	return s.send(ctx, Notification{
		Type:      NotificationDriverWelcome,
		Recipient: identityID,
		Title:     "Welcome aboard",
		Message:   fmt.Sprintf("Hi %s, your driver account is now active.", driverName),
		CreatedAt: time.Now(),
	})
}

// NotifyAccountStatusChanged informs an account holder of a block or restore.
func (s *NotificationService) NotifyAccountStatusChanged(ctx context.Context, identityID string, blocked bool) error {
	n := Notification{
		Type:      NotificationAccountRestored,
		Recipient: identityID,
		Title:     "Account restored",
		Message:   "Your account has been restored. You can sign in again.",
		CreatedAt: time.Now(),
	}
	if blocked {
		n.Type = NotificationAccountBlocked
		n.Title = "Account blocked"
		n.Message = "Your account has been blocked. Please contact support."
	}
	return s.send(ctx, n)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would hand off to the email/SMS/push
	// providers and persist the notification for the in-app feed.
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.Recipient, notification.Title, notification.Message)

	return nil
}
