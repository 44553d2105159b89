package paymentstatus

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	appErrors "github.com/opaquedelicia/restaurant-platform/internal/errors"
)

const previewLimit = 120

// markers of a framework error page served instead of JSON
var htmlMarkers = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
	[]byte("<head"),
	[]byte("<body"),
}

var previewPolicy = bluemonday.StrictPolicy()

// ParseBody returns the decoded JSON object held in raw. Empty bodies, HTML pages and
// anything that is not a single JSON object yield (nil, false).
func ParseBody(raw []byte) (map[string]any, bool) {

	payload, err := parseBody(slog.Default(), raw)
	if err != nil {
		return nil, false
	}

	return payload, true
}

// parseBody decodes raw and logs a sanitized preview of anything it rejects.
func parseBody(logger *slog.Logger, raw []byte) (map[string]any, error) {

	payload, err := decodeBody(raw)
	if err != nil {
		logger.Warn("Discarding payment status response",
			slog.String("reason", string(appErrors.PollFailureKindOf(err))),
			slog.String("error", err.Error()),
			slog.String("preview", bodyPreview(raw)))
		return nil, err
	}

	return payload, nil
}

func decodeBody(raw []byte) (map[string]any, error) {

	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 {
		return nil, appErrors.NewPollFailure(appErrors.PollInvalidResponseFormat, errors.New("empty response body"))
	}

	lower := bytes.ToLower(trimmed)
	for _, marker := range htmlMarkers {
		if bytes.Contains(lower, marker) {
			return nil, appErrors.NewPollFailure(appErrors.PollInvalidResponseFormat, errors.New("response body is an HTML document"))
		}
	}

	if trimmed[0] != '{' {
		return nil, appErrors.NewPollFailure(appErrors.PollInvalidResponseFormat, errors.New("response body is not a JSON object"))
	}

	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, appErrors.NewPollFailure(appErrors.PollParseError, err)
	}

	return payload, nil
}

func bodyPreview(raw []byte) string {

	text := strings.Join(strings.Fields(string(previewPolicy.SanitizeBytes(raw))), " ")
	if len(text) > previewLimit {
		text = text[:previewLimit] + "..."
	}

	return text
}
