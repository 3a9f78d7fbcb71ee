// Package calculator aggregates bill snapshots into dues summaries.
package calculator

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billvault/internal/models"
)

// VaultDues summarizes the bills of one vault.
type VaultDues struct {
	VaultID   string `json:"vaultId"`
	VaultName string `json:"vaultName"`
	Paid      int    `json:"paid"`
	Unpaid    int    `json:"unpaid"`
	NoData    int    `json:"noData"` // entries never refreshed

	// Outstanding sums the amounts of unpaid bills whose amount parsed.
	Outstanding decimal.Decimal `json:"outstanding"`

	// Unparsed counts unpaid bills whose amount could not be read.
	Unparsed int `json:"unparsed"`
}

// Dues is the summary across every vault.
type Dues struct {
	Vaults      []VaultDues     `json:"vaults"`
	Paid        int             `json:"paid"`
	Unpaid      int             `json:"unpaid"`
	NoData      int             `json:"noData"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Unparsed    int             `json:"unparsed"`
}

var amountPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// ParseAmount reads the first number in a printed amount such as
// "Rs. 1,240.50" or "₹ 980". It reports false if there is none.
func ParseAmount(s string) (decimal.Decimal, bool) {
	m := amountPattern.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CalculateDues classifies every entry and totals what is still owed.
//
// Algorithm:
// - Entry without snapshot: counted as no data
// - Snapshot classified paid: counted as paid
// - Otherwise unpaid: amount parsed and added to the outstanding total
func CalculateDues(vaults []models.Vault) Dues {
	var total Dues
	for _, v := range vaults {
		vd := VaultDues{VaultID: v.ID, VaultName: v.Name}

		for _, e := range v.Entries {
			if e.Bill == nil {
				vd.NoData++
				continue
			}
			if e.Bill.IsPaid() {
				vd.Paid++
				continue
			}

			vd.Unpaid++
			if amount, ok := ParseAmount(e.Bill.Amount); ok {
				vd.Outstanding = vd.Outstanding.Add(amount)
			} else {
				vd.Unparsed++
			}
		}

		total.Vaults = append(total.Vaults, vd)
		total.Paid += vd.Paid
		total.Unpaid += vd.Unpaid
		total.NoData += vd.NoData
		total.Unparsed += vd.Unparsed
		total.Outstanding = total.Outstanding.Add(vd.Outstanding)
	}
	return total
}
