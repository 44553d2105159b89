package countdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/opaquedelicia/restaurant-platform/internal/models"
)

// ResolveDeadline picks the payment deadline: the explicit expiration, then the fallback
// timestamp, then issuedAt+multibancoTTL for Multibanco payments. Unparseable timestamps are
// skipped; their error is returned only when no later candidate resolves.
func ResolveDeadline(expiration, fallback string, method models.PaymentMethod, issuedAt time.Time, multibancoTTL time.Duration) (time.Time, error) {

	var parseErr error

	for _, candidate := range []string{expiration, fallback} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		deadline, err := parseTimestamp(candidate)
		if err != nil {
			if parseErr == nil {
				parseErr = err
			}
			continue
		}

		return deadline, nil
	}

	if method == models.PaymentMethodMultibanco && !issuedAt.IsZero() {
		if multibancoTTL <= 0 {
			multibancoTTL = DefaultMultibancoTTL
		}

		return issuedAt.Add(multibancoTTL), nil
	}

	if parseErr != nil {
		return time.Time{}, parseErr
	}

	return time.Time{}, ErrNoDeadline
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-0700",
}

func parseTimestamp(value string) (time.Time, error) {

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid expiration timestamp %q", value)
}
