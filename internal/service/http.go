package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/billvault/internal/backup"
	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/report"
)

// MaxBackupSize bounds the body of a restore upload.
const MaxBackupSize = 10 << 20

// Files serves the non-RPC endpoints: PDF reports and backups.
type Files struct {
	svc  *VaultService
	sink backup.Sink
	log  *slog.Logger
}

// NewFiles creates the file endpoints. sink may be nil, which disables the
// snapshot and restore endpoints.
func NewFiles(svc *VaultService, sink backup.Sink, logger *slog.Logger) *Files {
	return &Files{svc: svc, sink: sink, log: logger.With("component", "files")}
}

// Register mounts the endpoints on mux.
func (f *Files) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /entries/{id}/report.pdf", f.report)
	mux.HandleFunc("GET /backup", f.export)
	mux.HandleFunc("POST /backup", f.importBackup)
	if f.sink != nil {
		mux.HandleFunc("POST /backup/snapshots", f.snapshot)
		mux.HandleFunc("POST /backup/snapshots/{name}/restore", f.restore)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (f *Files) report(w http.ResponseWriter, r *http.Request) {
	in, err := f.svc.reportInput(r.PathValue("id"))
	if err != nil {
		f.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bill-"+in.Entry.ServiceID+".pdf"))
	if err := report.WritePDF(w, in, report.PDFOptions{}); err != nil {
		// Headers are gone by now; the client sees a truncated file.
		f.log.ErrorContext(r.Context(), "failed to render report", "entry_id", in.Entry.ID, "error", err)
	}
}

func (f *Files) export(w http.ResponseWriter, r *http.Request) {
	data, err := f.svc.store.Export()
	if err != nil {
		f.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.Name(time.Now())))
	_, _ = w.Write(data)
}

func (f *Files) importBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBackupSize))
	if err != nil {
		f.writeError(w, r, fmt.Errorf("%w: %w", models.ErrInvalidBackupFile, err))
		return
	}
	if err := f.svc.store.Import(r.Context(), data); err != nil {
		f.writeError(w, r, err)
		return
	}
	f.svc.orch.Board().Reset()
	writeJSON(w, http.StatusOK, map[string]int{"vaults": len(f.svc.store.Vaults())})
}

func (f *Files) snapshot(w http.ResponseWriter, r *http.Request) {
	name, err := backup.Backup(r.Context(), f.svc.store, f.sink, time.Now())
	if err != nil {
		f.writeError(w, r, err)
		return
	}
	f.log.InfoContext(r.Context(), "backup written", "name", name)
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (f *Files) restore(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := backup.Restore(r.Context(), f.svc.store, f.sink, name); err != nil {
		f.writeError(w, r, err)
		return
	}
	f.svc.orch.Board().Reset()
	f.log.InfoContext(r.Context(), "backup restored", "name", name)
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

type errorBody struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func (f *Files) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, backup.ErrNoSuchBackup):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidBackupFile), errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		f.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Kind: models.ErrorKind(err), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
