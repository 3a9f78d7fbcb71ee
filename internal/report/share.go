package report

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/mmynk/billvault/internal/models"
)

// DefaultCountryCode is prefixed to ten-digit local numbers.
const DefaultCountryCode = "91"

// NormalizePhone keeps only digits, drops leading zeros and prefixes
// countryCode unless the number already carries it.
func NormalizePhone(phone, countryCode string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return "", fmt.Errorf("%w: no phone number", models.ErrValidation)
	}

	if len(digits) > 10 && strings.HasPrefix(digits, countryCode) {
		return digits, nil
	}
	return countryCode + digits, nil
}

// ShareMessage is the text sent with a share link.
func ShareMessage(in Input) string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	lines = append(lines, "*Electricity bill update*")
	add("Property", in.VaultName)
	add("Meter", fmt.Sprintf("%s (%s)", in.Entry.Nickname, in.Entry.ServiceID))
	add("Occupant", in.Entry.Occupant)
	add("Unit", in.Entry.Unit)

	if b := in.Entry.Bill; b != nil {
		for _, f := range billFields(b) {
			add(f.label, f.value)
		}
	} else {
		lines = append(lines, "No bill has been fetched yet.")
	}

	add("Portal", in.PortalURL)
	return strings.Join(lines, "\n")
}

// ShareLink builds a wa.me deep link to phone carrying ShareMessage(in).
func ShareLink(in Input, phone, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	number, err := NormalizePhone(phone, countryCode)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(url.QueryEscape(ShareMessage(in)), "+", "%20")
	return "https://wa.me/" + number + "?text=" + text, nil
}
