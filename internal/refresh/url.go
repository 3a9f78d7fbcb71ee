package refresh

import (
	"net/url"
	"strings"

	"github.com/mmynk/billvault/internal/models"
)

// Placeholder is replaced with the service identifier in portal URLs.
const Placeholder = "{UKSC}"

// ResolveURL returns the portal URL for an entry: its override with the
// placeholder substituted, or else defaultTemplate with the identifier
// substituted or appended.
func ResolveURL(entry models.ServiceEntry, defaultTemplate string) string {
	id := url.QueryEscape(entry.ServiceID)

	if override := strings.TrimSpace(entry.OverrideURL); override != "" {
		return replacePlaceholder(override, id)
	}
	if resolved := replacePlaceholder(defaultTemplate, id); resolved != defaultTemplate {
		return resolved
	}
	return defaultTemplate + id
}

func replacePlaceholder(s, id string) string {
	s = strings.ReplaceAll(s, Placeholder, id)
	return strings.ReplaceAll(s, strings.ToLower(Placeholder), id)
}
