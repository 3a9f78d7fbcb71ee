// Package extractor turns a portal page into a BillSnapshot with a single
// structured-output completion.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/billvault/internal/models"
)

// MaxInputChars is how many leading characters of a page are sent to the
// model. The summary table sits near the top of portal pages.
const MaxInputChars = 30000

// Fields are the keys the model is asked to return, in schema order.
var Fields = []string{"consumerName", "billingPeriod", "dueDate", "amount", "units", "status"}

// Schema is the JSON schema sent with every completion request.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"consumerName":  map[string]string{"type": "string", "description": "Name of the consumer on the bill"},
		"billingPeriod": map[string]string{"type": "string", "description": "Billing period or bill month"},
		"dueDate":       map[string]string{"type": "string", "description": "Payment due date"},
		"amount":        map[string]string{"type": "string", "description": "Amount payable, as printed"},
		"units":         map[string]string{"type": "string", "description": "Units consumed"},
		"status":        map[string]string{"type": "string", "description": "Payment status, e.g. Paid or Unpaid"},
	},
	"required":             Fields,
	"additionalProperties": false,
}

// Completer is the one external capability extraction needs: send a prompt
// with an output schema and get JSON text back.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema map[string]any) (string, error)
}

// CompleterFactory builds a Completer bound to an API key. The key is read
// from settings on every refresh, so the completer is built per call.
type CompleterFactory func(apiKey string) Completer

// Extractor runs one extraction per call.
type Extractor struct {
	newCompleter CompleterFactory
	maxChars     int
	now          func() time.Time
	log          *slog.Logger
}

// New creates an Extractor. maxChars <= 0 selects MaxInputChars.
func New(factory CompleterFactory, maxChars int, logger *slog.Logger) *Extractor {
	if maxChars <= 0 {
		maxChars = MaxInputChars
	}
	return &Extractor{
		newCompleter: factory,
		maxChars:     maxChars,
		now:          time.Now,
		log:          logger.With("component", "extractor"),
	}
}

// WithClock replaces the clock used to stamp LastFetched.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract asks the model for the six bill fields of html. An empty apiKey
// fails with models.ErrMissingCredential before anything is sent.
func (e *Extractor) Extract(ctx context.Context, apiKey, html, serviceID string) (models.BillSnapshot, error) {
	if strings.TrimSpace(apiKey) == "" {
		return models.BillSnapshot{}, fmt.Errorf("extract bill: %w", models.ErrMissingCredential)
	}

	input := Truncate(html, e.maxChars)
	prompt := buildPrompt(serviceID, input)

	e.log.DebugContext(ctx, "extraction request", "service_id", serviceID, "input_chars", len([]rune(input)))

	text, err := e.newCompleter(apiKey).Complete(ctx, prompt, Schema)
	if err != nil {
		return models.BillSnapshot{}, fmt.Errorf("extract bill: %w", err)
	}
	received := e.now().UTC()

	snap, err := ParseSnapshot(text)
	if err != nil {
		e.log.WarnContext(ctx, "unparsable extraction output", "service_id", serviceID, "error", err)
		return models.BillSnapshot{}, err
	}
	snap.LastFetched = received
	return snap, nil
}

// Truncate keeps the first n characters of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ParseSnapshot reads the model output. Output without a JSON object fails
// with models.ErrExtractionFailed; missing or non-string fields become "".
func ParseSnapshot(text string) (models.BillSnapshot, error) {
	jsonStr, err := extractJSON(text)
	if err != nil {
		return models.BillSnapshot{}, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return models.BillSnapshot{}, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}

	str := func(key string) string {
		s, _ := fields[key].(string)
		return strings.TrimSpace(s)
	}
	return models.BillSnapshot{
		ConsumerName:  str("consumerName"),
		BillingPeriod: str("billingPeriod"),
		DueDate:       str("dueDate"),
		Amount:        str("amount"),
		Units:         str("units"),
		Status:        str("status"),
	}, nil
}

// extractJSON finds the outermost JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

func buildPrompt(serviceID, html string) string {
	return fmt.Sprintf(`Extract the latest electricity bill for service number %s from the portal page below.

Return ONLY a JSON object with exactly these string fields:
{
  "consumerName": "<name of the consumer>",
  "billingPeriod": "<billing period or bill month>",
  "dueDate": "<due date as printed>",
  "amount": "<amount payable as printed>",
  "units": "<units consumed>",
  "status": "<Paid or Unpaid, as stated on the page>"
}

Rules:
- Copy values as printed on the page, do not reformat them
- Use an empty string for anything the page does not show
- Output ONLY the JSON, no markdown, no explanations

Page:
%s`, serviceID, html)
}
