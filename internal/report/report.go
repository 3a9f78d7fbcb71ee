// Package report renders a service entry as a PDF document or as a
// WhatsApp share link.
package report

import (
	"time"

	"github.com/mmynk/billvault/internal/models"
)

// Input is everything a report shows about one entry.
type Input struct {
	VaultName   string
	Entry       models.ServiceEntry
	PortalURL   string
	GeneratedAt time.Time
}

type field struct {
	label string
	value string
}

func identityFields(in Input) []field {
	return []field{
		{"Property", in.VaultName},
		{"Nickname", in.Entry.Nickname},
		{"Occupant", in.Entry.Occupant},
		{"Unit", in.Entry.Unit},
		{"Service number", in.Entry.ServiceID},
	}
}

// billFields returns the snapshot fields verbatim, in display order.
func billFields(b *models.BillSnapshot) []field {
	if b == nil {
		return nil
	}
	return []field{
		{"Consumer name", b.ConsumerName},
		{"Billing period", b.BillingPeriod},
		{"Amount", b.Amount},
		{"Due date", b.DueDate},
		{"Units", b.Units},
		{"Status", b.Status},
	}
}
