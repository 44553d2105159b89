package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/paymentstatus"
	"github.com/opaquedelicia/restaurant-platform/pkg/sendgrid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msgConfirmationSubject = "PaymentConfirmedEmailSubject"
	msgConfirmationBody    = "PaymentConfirmedEmailBody"
)

var supportedLocales = []language.Tag{language.Portuguese, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

var messages = map[language.Tag]map[string]string{
	language.Portuguese: {
		models.MsgPaymentConfirmed:         "Pagamento confirmado! A reserva associada a %s está garantida.",
		models.MsgPaymentExpired:           "O prazo de pagamento da referência %s expirou.",
		models.MsgPaymentCancelled:         "O pagamento %s foi cancelado porque o prazo expirou.",
		models.MsgPaymentCancelFailed:      "Não foi possível cancelar o pagamento %s. Contacte o restaurante.",
		models.MsgPaymentStatusUnavailable: "Não foi possível verificar o estado do pagamento %s. Vamos tentar novamente.",
		msgConfirmationSubject:             "Reserva confirmada (%s)",
		msgConfirmationBody:                "Olá %s, recebemos o seu pagamento. A sua mesa para %d pessoas está reservada para %s.",
	},
	language.English: {
		models.MsgPaymentConfirmed:         "Payment confirmed! The reservation linked to %s is secured.",
		models.MsgPaymentExpired:           "The payment window for reference %s has expired.",
		models.MsgPaymentCancelled:         "Payment %s was cancelled because its deadline passed.",
		models.MsgPaymentCancelFailed:      "Payment %s could not be cancelled. Please contact the restaurant.",
		models.MsgPaymentStatusUnavailable: "The status of payment %s could not be checked. Retrying.",
		msgConfirmationSubject:             "Reservation confirmed (%s)",
		msgConfirmationBody:                "Hello %s, we received your payment. Your table for %d is booked for %s.",
	},
}

var messageCatalog = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Portuguese))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}

	return b
}()

// MatchLocale maps a locale string such as "pt-PT" or "en-GB" to a supported language,
// defaulting to Portuguese.
func MatchLocale(locale string) language.Tag {
	_, index, confidence := localeMatcher.Match(language.Make(locale))
	if confidence == language.No {
		return supportedLocales[0]
	}

	return supportedLocales[index]
}

func newPrinter(locale string) *message.Printer {
	return message.NewPrinter(MatchLocale(locale), message.Catalog(messageCatalog))
}

// NotificationSink receives every localized notification.
type NotificationSink func(ctx context.Context, n models.Notification)

// Notifier turns translation identifiers into localized notifications and hands them to
// its sinks. It implements paymentstatus.Notifier.
type Notifier struct {
	printer *message.Printer
	mu      sync.Mutex
	sinks   []NotificationSink
}

var _ paymentstatus.Notifier = (*Notifier)(nil)

func NewNotifier(locale string, sinks ...NotificationSink) *Notifier {
	return &Notifier{printer: newPrinter(locale), sinks: sinks}
}

func (n *Notifier) AddSink(sink NotificationSink) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sinks = append(n.sinks, sink)
}

func (n *Notifier) Text(messageID, reference string) string {
	return n.printer.Sprintf(messageID, reference)
}

func (n *Notifier) Notify(ctx context.Context, level models.NotificationLevel, messageID, reference string) {

	notification := models.Notification{
		MessageID: messageID,
		Level:     level,
		Reference: reference,
		Text:      n.Text(messageID, reference),
		CreatedAt: time.Now(),
	}

	middleware.LoggerFromContext(ctx).Info("Payment notification",
		slog.String("message_id", messageID),
		slog.String("level", string(level)),
		slog.String("reference", reference))

	n.mu.Lock()
	sinks := append([]NotificationSink(nil), n.sinks...)
	n.mu.Unlock()

	for _, sink := range sinks {
		sink(ctx, notification)
	}
}

// Inbox is a NotificationSink that keeps the latest notifications in memory.
type Inbox struct {
	mu    sync.Mutex
	limit int
	items []models.Notification
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 50
	}

	return &Inbox{limit: limit}
}

func (i *Inbox) Sink(_ context.Context, n models.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = append(i.items, n)
	if len(i.items) > i.limit {
		i.items = i.items[len(i.items)-i.limit:]
	}
}

func (i *Inbox) Items() []models.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()

	return append([]models.Notification(nil), i.items...)
}

type EmailNotifier interface {
	SendPaymentConfirmation(ctx context.Context, payment *models.Payment, reservation *models.Reservation) error
}

type emailNotifier struct {
	emailService sendgrid.EmailService
	printer      *message.Printer
	policy       *bluemonday.Policy
}

func NewEmailNotifier(emailService sendgrid.EmailService, locale string) EmailNotifier {
	return &emailNotifier{
		emailService: emailService,
		printer:      newPrinter(locale),
		policy:       bluemonday.StrictPolicy(),
	}
}

// SendPaymentConfirmation emails the customer that the reservation is paid.
func (e *emailNotifier) SendPaymentConfirmation(ctx context.Context, payment *models.Payment, reservation *models.Reservation) error {

	if reservation.CustomerEmail == "" {
		return nil
	}

	// customer supplied text never reaches the html part unsanitized
	name := html.UnescapeString(e.policy.Sanitize(reservation.CustomerName))
	when := reservation.ReservedFor.Format("02/01/2006 15:04")

	body := e.printer.Sprintf(msgConfirmationBody, name, reservation.PartySize, when)

	req := &models.EmailNotificationRequest{
		To:          reservation.CustomerEmail,
		Subject:     e.printer.Sprintf(msgConfirmationSubject, payment.Reference),
		Content:     body,
		HTMLContent: "<p>" + html.EscapeString(body) + "</p>",
	}

	if err := e.emailService.Send(ctx, req); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	return nil
}
