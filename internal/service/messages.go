package service

import (
	"github.com/mmynk/billvault/internal/calculator"
	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/refresh"
	"github.com/mmynk/billvault/internal/schedule"
)

type ListVaultsRequest struct{}

type ListVaultsResponse struct {
	Vaults          []models.Vault            `json:"vaults"`
	SelectedVaultID string                    `json:"selectedVaultId,omitempty"`
	Statuses        map[string]refresh.Status `json:"statuses"`
}

type CreateVaultRequest struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
}

type CreateVaultResponse struct {
	Vault models.Vault `json:"vault"`
}

// DeleteVaultRequest must carry Confirm=true.
type DeleteVaultRequest struct {
	VaultID string `json:"vaultId"`
	Confirm bool   `json:"confirm"`
}

type DeleteVaultResponse struct{}

type SelectVaultRequest struct {
	VaultID string `json:"vaultId"`
}

type SelectVaultResponse struct{}

// AddEntriesRequest carries identifiers separated by newlines or commas.
type AddEntriesRequest struct {
	VaultID     string `json:"vaultId"`
	Identifiers string `json:"identifiers"`
}

type AddEntriesResponse struct {
	Created    []models.ServiceEntry `json:"created"`
	Duplicates []string              `json:"duplicates,omitempty"`
}

type UpdateEntryRequest struct {
	Entry models.ServiceEntry `json:"entry"`
}

type UpdateEntryResponse struct {
	Entry models.ServiceEntry `json:"entry"`
}

// DeleteEntryRequest must carry Confirm=true.
type DeleteEntryRequest struct {
	EntryID string `json:"entryId"`
	Confirm bool   `json:"confirm"`
}

type DeleteEntryResponse struct{}

type RefreshEntryRequest struct {
	EntryID string `json:"entryId"`
}

// RefreshEntryResponse is returned for failed refreshes too; Status carries
// the error and Entry the snapshot that survived it.
type RefreshEntryResponse struct {
	Entry  models.ServiceEntry `json:"entry"`
	Status refresh.Status      `json:"status"`
}

type RefreshAllRequest struct{}

type RefreshAllResponse struct {
	Started bool `json:"started"`
}

type GetSettingsRequest struct{}

// SettingsView never exposes the credential itself.
type SettingsView struct {
	CredentialSet   bool                   `json:"credentialSet"`
	RefreshSchedule models.RefreshSchedule `json:"refreshSchedule"`
	ScheduleState   schedule.State         `json:"scheduleState"`
}

type GetSettingsResponse struct {
	Settings SettingsView `json:"settings"`
}

// UpdateSettingsRequest changes only the fields that are set. An empty
// APIKey clears the credential.
type UpdateSettingsRequest struct {
	APIKey          *string                 `json:"apiKey,omitempty"`
	RefreshSchedule *models.RefreshSchedule `json:"refreshSchedule,omitempty"`
}

type UpdateSettingsResponse struct {
	Settings SettingsView `json:"settings"`
}

type GetStatusesRequest struct{}

type GetStatusesResponse struct {
	Statuses map[string]refresh.Status `json:"statuses"`
}

type GetDuesRequest struct{}

type GetDuesResponse struct {
	Dues calculator.Dues `json:"dues"`
}

// ShareLinkRequest may override the phone stored on the entry.
type ShareLinkRequest struct {
	EntryID string `json:"entryId"`
	Phone   string `json:"phone,omitempty"`
}

type ShareLinkResponse struct {
	URL string `json:"url"`
}
