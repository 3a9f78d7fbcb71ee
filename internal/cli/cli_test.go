package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billvault/internal/app"
	"github.com/mmynk/billvault/internal/config"
	"github.com/mmynk/billvault/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (string, error) {
	return "<html>bill</html>", nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _, _, serviceID string) (models.BillSnapshot, error) {
	return models.BillSnapshot{
		ConsumerName: "Consumer " + serviceID,
		Amount:       "₹450.50",
		DueDate:      "20-Oct-2026",
		Status:       "Unpaid",
		LastFetched:  time.Now(),
	}, nil
}

type harness struct {
	t   *testing.T
	app *app.App
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage:    config.StorageConfig{Driver: "memory"},
		Portal:     config.PortalConfig{DefaultURL: "https://portal.example/?uksc={UKSC}"},
		Extraction: config.ExtractionConfig{Model: "test", MaxInputChars: 100, MaxTokens: 16},
		Schedule:   config.ScheduleConfig{Pause: time.Millisecond},
		Share:      config.ShareConfig{CountryCode: "91"},
		Backup:     config.BackupConfig{Dir: filepath.Join(dir, "backups")},
	}
	a, err := app.New(context.Background(), cfg, newTestLogger(), app.Options{
		Fetcher:   stubFetcher{},
		Extractor: stubExtractor{},
	})
	require.NoError(t, err)
	return &harness{t: t, app: a, dir: dir}
}

// run executes one invocation with stdin and returns its output.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	env := Env{
		Open: func(context.Context) (*app.App, error) { return h.app, nil },
		In:   strings.NewReader(stdin),
		Out:  &out,
		Err:  &out,
	}
	err := Run(context.Background(), env, args)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) firstVault() models.Vault {
	h.t.Helper()
	vaults := h.app.Store.Vaults()
	require.NotEmpty(h.t, vaults)
	return vaults[0]
}

func TestVaultCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("vault", "create", "Hill View", "--category", "multi")
	assert.Contains(t, out, "created Hill View")
	v := h.firstVault()
	assert.Equal(t, models.CategoryMultiUnit, v.Category)

	out = h.mustRun("vault", "list")
	assert.Contains(t, out, v.ID)
	assert.Contains(t, out, "Hill View")

	_, err := h.run("", "vault", "create", "Bad", "--category", "castle")
	assert.ErrorIs(t, err, models.ErrValidation)

	out, err = h.run("n\n", "vault", "delete", v.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")
	assert.Len(t, h.app.Store.Vaults(), 1)

	out, err = h.run("y\n", "vault", "delete", v.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted Hill View")
	assert.Empty(t, h.app.Store.Vaults())
}

func TestEntryAddRefreshesNewEntries(t *testing.T) {
	h := newHarness(t)
	h.mustRun("vault", "create", "Hill View")
	_, err := h.run("sk-test\n", "settings", "set-key")
	require.NoError(t, err)

	out := h.mustRun("entry", "add", "1001,1002", "1001")
	assert.Contains(t, out, "added 1001")
	assert.Contains(t, out, "added 1002")
	assert.Contains(t, out, "1001: Unpaid, ₹450.50 due 20-Oct-2026")

	for _, ref := range h.app.Store.AllEntries() {
		require.NotNil(t, ref.Entry.Bill, ref.Entry.ServiceID)
	}

	out, err = h.run("", "entry", "add", "1002")
	assert.ErrorIs(t, err, models.ErrDuplicateIdentifier)
	assert.Contains(t, out, "already tracked: 1002")

	out = h.mustRun("entry", "list")
	assert.Contains(t, out, "Meter 1001")
	assert.Contains(t, out, "₹450.50")
}

func TestEntryAddWithoutVault(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "entry", "add", "1001")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEntryEditAndDelete(t *testing.T) {
	h := newHarness(t)
	h.mustRun("vault", "create", "Hill View")
	h.mustRun("entry", "add", "--no-refresh", "5550001234")
	id := h.app.Store.AllEntries()[0].Entry.ID

	h.mustRun("entry", "edit", id, "--occupant", "R. Sharma", "--phone", "9876543210")
	ref, err := h.app.Store.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, "R. Sharma", ref.Entry.Occupant)
	assert.Equal(t, "9876543210", ref.Entry.Phone)
	assert.Equal(t, "Meter 1234", ref.Entry.Nickname, "untouched fields are kept")

	out := h.mustRun("share", id)
	assert.True(t, strings.HasPrefix(out, "https://wa.me/919876543210?text="), out)

	h.mustRun("entry", "delete", id, "--yes")
	assert.Empty(t, h.app.Store.AllEntries())

	_, err = h.run("", "entry", "delete", id, "--yes")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEntryEditServiceNumber(t *testing.T) {
	h := newHarness(t)
	h.mustRun("vault", "create", "Hill View")
	h.mustRun("entry", "add", "--no-refresh", "1001", "1002")
	refs := h.app.Store.AllEntries()
	require.Len(t, refs, 2)
	id := refs[0].Entry.ID

	_, err := h.run("", "entry", "edit", id, "--uksc", "1002")
	assert.ErrorIs(t, err, models.ErrDuplicateIdentifier)

	_, err = h.run("", "entry", "edit", id, "--uksc", "  ")
	assert.ErrorIs(t, err, models.ErrValidation)

	out := h.mustRun("entry", "edit", id, "--uksc", " 2001 ")
	assert.Contains(t, out, "(2001)")

	ref, err := h.app.Store.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, "2001", ref.Entry.ServiceID)
	assert.Equal(t, "Meter 1001", ref.Entry.Nickname, "nickname is not re-derived")
}

func TestRefreshCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("vault", "create", "Hill View")
	h.mustRun("entry", "add", "--no-refresh", "1001", "1002")
	id := h.app.Store.AllEntries()[0].Entry.ID

	out, err := h.run("", "refresh", id)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing_credential")
	assert.Contains(t, out, "refresh failed (missing_credential)")

	_, err = h.run("sk-test\n", "settings", "set-key")
	require.NoError(t, err)

	out = h.mustRun("refresh", "--all")
	assert.Contains(t, out, "1001: Unpaid")
	assert.Contains(t, out, "1002: Unpaid")

	_, err = h.run("", "refresh")
	assert.Error(t, err, "entry id required without --all")
}

func TestSettingsCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("settings", "show")
	assert.Contains(t, out, "api key:  not set")
	assert.Contains(t, out, "schedule: disabled")

	_, err := h.run("\n", "settings", "set-key")
	assert.ErrorIs(t, err, models.ErrValidation)

	h.mustRun("settings", "schedule", "--every", "12", "--unit", "hours")
	assert.Equal(t, models.RefreshSchedule{Enabled: true, Value: 12, Unit: models.UnitHours}, h.app.Store.Settings().RefreshSchedule)

	_, err = h.run("", "settings", "schedule", "--every", "0")
	assert.ErrorIs(t, err, models.ErrValidation)

	h.mustRun("settings", "schedule", "--disable")
	assert.False(t, h.app.Store.Settings().RefreshSchedule.Enabled)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("vault", "create", "Hill View")
	h.mustRun("entry", "add", "--no-refresh", "1001")

	path := filepath.Join(h.dir, "export.json")
	h.mustRun("export", "--out", path)

	out := h.mustRun("export", "--snapshot")
	assert.Contains(t, out, "backup written: billvault-")
	name := strings.TrimSpace(strings.TrimPrefix(out, "backup written: "))

	h.mustRun("vault", "delete", h.firstVault().ID, "--yes")
	require.Empty(t, h.app.Store.Vaults())

	out = h.mustRun("import", path, "--yes")
	assert.Contains(t, out, "imported 1 properties")
	assert.Len(t, h.app.Store.AllEntries(), 1)

	h.mustRun("vault", "delete", h.firstVault().ID, "--yes")
	h.mustRun("import", "--snapshot", name, "--yes")
	assert.Len(t, h.app.Store.AllEntries(), 1)

	bad := filepath.Join(h.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err := h.run("", "import", bad, "--yes")
	assert.ErrorIs(t, err, models.ErrInvalidBackupFile)
	assert.Len(t, h.app.Store.AllEntries(), 1)
}

func TestPDFAndDues(t *testing.T) {
	h := newHarness(t)
	h.mustRun("vault", "create", "Hill View")
	_, err := h.run("sk-test\n", "settings", "set-key")
	require.NoError(t, err)
	h.mustRun("entry", "add", "1001", "1002")

	id := h.app.Store.AllEntries()[0].Entry.ID
	path := filepath.Join(h.dir, "bill.pdf")
	h.mustRun("pdf", id, "--out", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	out := h.mustRun("dues")
	assert.Contains(t, out, "Hill View: 2 unpaid, 0 paid, 0 without data, outstanding ₹901.00")
	assert.Contains(t, out, "total outstanding ₹901.00")
}
