package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// ServiceName is the fully-qualified name of the vault service.
const ServiceName = "billvault.v1.VaultService"

// Procedure paths of the vault service.
const (
	ListVaultsProcedure     = "/" + ServiceName + "/ListVaults"
	CreateVaultProcedure    = "/" + ServiceName + "/CreateVault"
	DeleteVaultProcedure    = "/" + ServiceName + "/DeleteVault"
	SelectVaultProcedure    = "/" + ServiceName + "/SelectVault"
	AddEntriesProcedure     = "/" + ServiceName + "/AddEntries"
	UpdateEntryProcedure    = "/" + ServiceName + "/UpdateEntry"
	DeleteEntryProcedure    = "/" + ServiceName + "/DeleteEntry"
	RefreshEntryProcedure   = "/" + ServiceName + "/RefreshEntry"
	RefreshAllProcedure     = "/" + ServiceName + "/RefreshAll"
	GetSettingsProcedure    = "/" + ServiceName + "/GetSettings"
	UpdateSettingsProcedure = "/" + ServiceName + "/UpdateSettings"
	GetStatusesProcedure    = "/" + ServiceName + "/GetStatuses"
	GetDuesProcedure        = "/" + ServiceName + "/GetDues"
	ShareLinkProcedure      = "/" + ServiceName + "/ShareLink"
)

func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// RegisterVaultService mounts every procedure of svc on mux. The JSON codec
// is always installed.
func RegisterVaultService(mux *http.ServeMux, svc *VaultService, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	unary(mux, ListVaultsProcedure, svc.ListVaults, opts)
	unary(mux, CreateVaultProcedure, svc.CreateVault, opts)
	unary(mux, DeleteVaultProcedure, svc.DeleteVault, opts)
	unary(mux, SelectVaultProcedure, svc.SelectVault, opts)
	unary(mux, AddEntriesProcedure, svc.AddEntries, opts)
	unary(mux, UpdateEntryProcedure, svc.UpdateEntry, opts)
	unary(mux, DeleteEntryProcedure, svc.DeleteEntry, opts)
	unary(mux, RefreshEntryProcedure, svc.RefreshEntry, opts)
	unary(mux, RefreshAllProcedure, svc.RefreshAll, opts)
	unary(mux, GetSettingsProcedure, svc.GetSettings, opts)
	unary(mux, UpdateSettingsProcedure, svc.UpdateSettings, opts)
	unary(mux, GetStatusesProcedure, svc.GetStatuses, opts)
	unary(mux, GetDuesProcedure, svc.GetDues, opts)
	unary(mux, ShareLinkProcedure, svc.ShareLink, opts)
}

// NewClient returns a Connect client for one procedure of the vault service
// at baseURL.
func NewClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts ...connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, baseURL+procedure, opts...)
}
