package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/billvault/internal/calculator"
	"github.com/mmynk/billvault/internal/refresh"
	"github.com/mmynk/billvault/internal/report"
	"github.com/mmynk/billvault/internal/schedule"
	"github.com/mmynk/billvault/internal/vault"
)

// VaultService implements the billvault.v1.VaultService procedures.
type VaultService struct {
	store       *vault.Store
	orch        *refresh.Orchestrator
	loop        *schedule.Loop
	countryCode string
	log         *slog.Logger
}

// NewVaultService creates a new VaultService.
func NewVaultService(store *vault.Store, orch *refresh.Orchestrator, loop *schedule.Loop, countryCode string, logger *slog.Logger) *VaultService {
	if countryCode == "" {
		countryCode = report.DefaultCountryCode
	}
	return &VaultService{
		store:       store,
		orch:        orch,
		loop:        loop,
		countryCode: countryCode,
		log:         logger.With("component", "vault_service"),
	}
}

func (s *VaultService) ListVaults(ctx context.Context, req *connect.Request[ListVaultsRequest]) (*connect.Response[ListVaultsResponse], error) {
	resp := &ListVaultsResponse{
		Vaults:   s.store.Vaults(),
		Statuses: s.orch.Board().All(),
	}
	if selected, ok := s.store.Selected(); ok {
		resp.SelectedVaultID = selected.ID
	}
	return connect.NewResponse(resp), nil
}

func (s *VaultService) CreateVault(ctx context.Context, req *connect.Request[CreateVaultRequest]) (*connect.Response[CreateVaultResponse], error) {
	v, err := s.store.CreateVault(ctx, req.Msg.Name, req.Msg.Category)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateVaultResponse{Vault: v}), nil
}

func (s *VaultService) DeleteVault(ctx context.Context, req *connect.Request[DeleteVaultRequest]) (*connect.Response[DeleteVaultResponse], error) {
	if !req.Msg.Confirm {
		return nil, toConnectError(errNotConfirmed)
	}
	v, err := s.store.Vault(req.Msg.VaultID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteVault(ctx, v.ID); err != nil {
		return nil, toConnectError(err)
	}
	for _, e := range v.Entries {
		s.orch.Board().Forget(e.ID)
	}
	return connect.NewResponse(&DeleteVaultResponse{}), nil
}

func (s *VaultService) SelectVault(ctx context.Context, req *connect.Request[SelectVaultRequest]) (*connect.Response[SelectVaultResponse], error) {
	if err := s.store.SelectVault(req.Msg.VaultID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SelectVaultResponse{}), nil
}

// AddEntries creates the new entries and starts a refresh for each of them.
// Duplicates are listed in the response rather than failing the call, unless
// nothing at all was created.
func (s *VaultService) AddEntries(ctx context.Context, req *connect.Request[AddEntriesRequest]) (*connect.Response[AddEntriesResponse], error) {
	res, err := s.store.AddEntries(ctx, req.Msg.VaultID, req.Msg.Identifiers)
	if err != nil {
		return nil, toConnectError(err)
	}
	if len(res.Created) == 0 {
		return nil, toConnectError(res.Err())
	}

	ids := make([]string, len(res.Created))
	for i, e := range res.Created {
		ids[i] = e.ID
	}
	s.orch.RefreshMany(ctx, ids)

	return connect.NewResponse(&AddEntriesResponse{
		Created:    res.Created,
		Duplicates: res.Duplicates,
	}), nil
}

func (s *VaultService) UpdateEntry(ctx context.Context, req *connect.Request[UpdateEntryRequest]) (*connect.Response[UpdateEntryResponse], error) {
	entry, err := s.store.UpdateEntry(ctx, req.Msg.Entry)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&UpdateEntryResponse{Entry: entry}), nil
}

func (s *VaultService) DeleteEntry(ctx context.Context, req *connect.Request[DeleteEntryRequest]) (*connect.Response[DeleteEntryResponse], error) {
	if !req.Msg.Confirm {
		return nil, toConnectError(errNotConfirmed)
	}
	if err := s.store.DeleteEntry(ctx, req.Msg.EntryID); err != nil {
		return nil, toConnectError(err)
	}
	s.orch.Board().Forget(req.Msg.EntryID)
	return connect.NewResponse(&DeleteEntryResponse{}), nil
}

// RefreshEntry runs one refresh to completion. Refresh failures are reported
// through the returned status, not as an RPC error.
func (s *VaultService) RefreshEntry(ctx context.Context, req *connect.Request[RefreshEntryRequest]) (*connect.Response[RefreshEntryResponse], error) {
	if _, err := s.store.Entry(req.Msg.EntryID); err != nil {
		return nil, toConnectError(err)
	}

	_ = s.orch.Refresh(ctx, req.Msg.EntryID)

	ref, err := s.store.Entry(req.Msg.EntryID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RefreshEntryResponse{
		Entry:  ref.Entry,
		Status: s.orch.Board().Get(req.Msg.EntryID),
	}), nil
}

// RefreshAll starts a sweep in the background. Started is false when a sweep
// was already running.
func (s *VaultService) RefreshAll(ctx context.Context, req *connect.Request[RefreshAllRequest]) (*connect.Response[RefreshAllResponse], error) {
	return connect.NewResponse(&RefreshAllResponse{Started: s.loop.Start(ctx)}), nil
}

func (s *VaultService) settingsView() SettingsView {
	settings := s.store.Settings()
	return SettingsView{
		CredentialSet:   settings.APIKey != "",
		RefreshSchedule: settings.RefreshSchedule,
		ScheduleState:   s.loop.State(),
	}
}

func (s *VaultService) GetSettings(ctx context.Context, req *connect.Request[GetSettingsRequest]) (*connect.Response[GetSettingsResponse], error) {
	return connect.NewResponse(&GetSettingsResponse{Settings: s.settingsView()}), nil
}

func (s *VaultService) UpdateSettings(ctx context.Context, req *connect.Request[UpdateSettingsRequest]) (*connect.Response[UpdateSettingsResponse], error) {
	settings := s.store.Settings()
	if req.Msg.APIKey != nil {
		settings.APIKey = *req.Msg.APIKey
	}
	if req.Msg.RefreshSchedule != nil {
		settings.RefreshSchedule = *req.Msg.RefreshSchedule
	}
	if err := s.store.UpdateSettings(ctx, settings); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&UpdateSettingsResponse{Settings: s.settingsView()}), nil
}

func (s *VaultService) GetStatuses(ctx context.Context, req *connect.Request[GetStatusesRequest]) (*connect.Response[GetStatusesResponse], error) {
	return connect.NewResponse(&GetStatusesResponse{Statuses: s.orch.Board().All()}), nil
}

func (s *VaultService) GetDues(ctx context.Context, req *connect.Request[GetDuesRequest]) (*connect.Response[GetDuesResponse], error) {
	return connect.NewResponse(&GetDuesResponse{Dues: calculator.CalculateDues(s.store.Vaults())}), nil
}

func (s *VaultService) ShareLink(ctx context.Context, req *connect.Request[ShareLinkRequest]) (*connect.Response[ShareLinkResponse], error) {
	in, err := s.reportInput(req.Msg.EntryID)
	if err != nil {
		return nil, toConnectError(err)
	}
	phone := req.Msg.Phone
	if phone == "" {
		phone = in.Entry.Phone
	}
	link, err := report.ShareLink(in, phone, s.countryCode)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ShareLinkResponse{URL: link}), nil
}

func (s *VaultService) reportInput(entryID string) (report.Input, error) {
	ref, err := s.store.Entry(entryID)
	if err != nil {
		return report.Input{}, err
	}
	return report.Input{
		VaultName:   ref.VaultName,
		Entry:       ref.Entry,
		PortalURL:   s.orch.PortalURL(ref.Entry),
		GeneratedAt: time.Now(),
	}, nil
}
