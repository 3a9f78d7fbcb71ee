package models

import (
	"strings"
	"time"
)

// BillSnapshot is the structured result of one successful extraction.
// Fields are copied verbatim from the extraction output; a field the model
// did not return is the empty string. Snapshots are replaced wholesale.
type BillSnapshot struct {
	ConsumerName  string    `json:"consumerName"`
	BillingPeriod string    `json:"billingPeriod"`
	DueDate       string    `json:"dueDate"`
	Amount        string    `json:"amount"`
	Units         string    `json:"units"`
	Status        string    `json:"status"`
	LastFetched   time.Time `json:"lastFetched"`
}

// PaymentStatus is the display classification of a bill status string.
type PaymentStatus string

const (
	StatusPaid   PaymentStatus = "paid"
	StatusUnpaid PaymentStatus = "unpaid"
)

// ClassifyStatus maps a free-text status to paid or unpaid. Only a status
// containing "paid" and not "unpaid" counts as paid; anything else, including
// unknown values, is treated as unpaid.
func ClassifyStatus(status string) PaymentStatus {
	s := strings.ToLower(status)
	if strings.Contains(s, "paid") && !strings.Contains(s, "unpaid") {
		return StatusPaid
	}
	return StatusUnpaid
}

// IsPaid is shorthand for ClassifyStatus(b.Status) == StatusPaid.
func (b BillSnapshot) IsPaid() bool {
	return ClassifyStatus(b.Status) == StatusPaid
}
