// Package cli implements the billvault command line.
//
// Every command opens the configured store, acts on it directly and closes
// it again; no server needs to be running. Destructive commands ask for
// confirmation unless --yes is given.
package cli
