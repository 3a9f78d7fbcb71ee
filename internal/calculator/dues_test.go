package calculator

import (
	"testing"

	"github.com/mmynk/billvault/internal/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"1,240.50", "1240.5", true},
		{"Rs. 1,240.50", "1240.5", true},
		{"₹ 980", "980", true},
		{"-12.00", "-12", true},
		{"", "0", false},
		{"N/A", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestCalculateDues(t *testing.T) {
	vaults := []models.Vault{
		{
			ID:   "v1",
			Name: "Lake House",
			Entries: []models.ServiceEntry{
				{ID: "a", Bill: &models.BillSnapshot{Amount: "1,000.25", Status: "Unpaid"}},
				{ID: "b", Bill: &models.BillSnapshot{Amount: "500", Status: "Paid"}},
				{ID: "c"},
				{ID: "d", Bill: &models.BillSnapshot{Amount: "see portal", Status: "N/A"}},
			},
		},
		{
			ID:   "v2",
			Name: "City Flat",
			Entries: []models.ServiceEntry{
				{ID: "e", Bill: &models.BillSnapshot{Amount: "Rs. 99.75", Status: "Partially Unpaid"}},
			},
		},
	}

	dues := CalculateDues(vaults)

	if len(dues.Vaults) != 2 {
		t.Fatalf("expected 2 vault summaries, got %d", len(dues.Vaults))
	}

	lake := dues.Vaults[0]
	if lake.Paid != 1 || lake.Unpaid != 2 || lake.NoData != 1 || lake.Unparsed != 1 {
		t.Errorf("Lake House counts = %+v", lake)
	}
	if lake.Outstanding.String() != "1000.25" {
		t.Errorf("Lake House outstanding = %s, want 1000.25", lake.Outstanding)
	}

	if dues.Paid != 1 || dues.Unpaid != 3 || dues.NoData != 1 {
		t.Errorf("totals = paid %d unpaid %d no data %d", dues.Paid, dues.Unpaid, dues.NoData)
	}
	if dues.Outstanding.String() != "1100" {
		t.Errorf("total outstanding = %s, want 1100", dues.Outstanding)
	}
}
