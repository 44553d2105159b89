package models

import (
	"time"
)

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Translation identifiers of user facing payment messages.
const (
	MsgPaymentConfirmed         = "PaymentConfirmed"
	MsgPaymentExpired           = "PaymentExpired"
	MsgPaymentCancelled         = "PaymentCancelled"
	MsgPaymentCancelFailed      = "PaymentCancelFailed"
	MsgPaymentStatusUnavailable = "PaymentStatusUnavailable"
)

type Notification struct {
	MessageID string            `json:"message_id"`
	Level     NotificationLevel `json:"level"`
	Reference string            `json:"reference"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"created_at"`
}

type EmailNotificationRequest struct {
	To          string   `json:"to" validate:"required,email"`
	Subject     string   `json:"subject" validate:"required"`
	Content     string   `json:"content" validate:"required"`
	HTMLContent string   `json:"html_content,omitempty"`
	CC          []string `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC         []string `json:"bcc,omitempty" validate:"omitempty,dive,email"`
}
