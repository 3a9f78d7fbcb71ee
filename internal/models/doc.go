// Package models defines the core domain models for billvault.
//
// # Models
//
//   - Vault: a property grouping one or more service entries
//   - ServiceEntry: one tracked electricity service (a UKSC number)
//   - BillSnapshot: the last successfully extracted bill for an entry
//   - AppSettings: the extraction credential and the refresh schedule
//
// Vaults own their entries outright. Entries reference nothing outside their
// vault; a service identifier is unique across every vault in the store.
//
// JSON tags match the persisted document and the export file, so any change
// to a tag needs a matching migration in package persist.
package models
