package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billvault/internal/backup"
	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/refresh"
	"github.com/mmynk/billvault/internal/schedule"
	"github.com/mmynk/billvault/internal/storage/memory"
	"github.com/mmynk/billvault/internal/vault"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (string, error) {
	return "<html>bill</html>", nil
}

type stubExtractor struct {
	mu   sync.Mutex
	snap models.BillSnapshot
}

func (s *stubExtractor) Extract(_ context.Context, _, _, serviceID string) (models.BillSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.ConsumerName = "Consumer " + serviceID
	snap.LastFetched = time.Now()
	return snap, nil
}

type testServer struct {
	srv   *httptest.Server
	store *vault.Store
	board *refresh.Board
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := newTestLogger()

	store := vault.Open(ctx, memory.New(), logger)
	board := refresh.NewBoard()
	ext := &stubExtractor{snap: models.BillSnapshot{Amount: "₹1,100.00", Status: "Unpaid", DueDate: "20-Oct-2026"}}
	orch := refresh.New(store, stubFetcher{}, ext, board, "https://portal.example/bill?uksc={UKSC}", logger)
	loop := schedule.New(store, orch, time.Millisecond, logger)

	sink, err := backup.NewFileSink(t.TempDir())
	require.NoError(t, err)

	svc := NewVaultService(store, orch, loop, "91", logger)
	hub := NewStatusHub(board, logger)
	t.Cleanup(func() { _ = hub.Close() })

	mux := http.NewServeMux()
	RegisterVaultService(mux, svc)
	NewFiles(svc, sink, logger).Register(mux)
	mux.Handle("GET /ws/status", hub)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: store, board: board}
}

func call[Req, Res any](t *testing.T, ts *testServer, procedure string, req *Req) (*Res, error) {
	t.Helper()
	client := NewClient[Req, Res](ts.srv.Client(), ts.srv.URL, procedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func createVault(t *testing.T, ts *testServer, name string) models.Vault {
	t.Helper()
	resp, err := call[CreateVaultRequest, CreateVaultResponse](t, ts, CreateVaultProcedure, &CreateVaultRequest{Name: name, Category: models.CategoryMultiUnit})
	require.NoError(t, err)
	return resp.Vault
}

func setAPIKey(t *testing.T, ts *testServer) {
	t.Helper()
	key := "sk-test"
	_, err := call[UpdateSettingsRequest, UpdateSettingsResponse](t, ts, UpdateSettingsProcedure, &UpdateSettingsRequest{APIKey: &key})
	require.NoError(t, err)
}

func TestVaultLifecycle(t *testing.T) {
	ts := newTestServer(t)

	v := createVault(t, ts, "Hill View")
	assert.NotEmpty(t, v.ID)

	list, err := call[ListVaultsRequest, ListVaultsResponse](t, ts, ListVaultsProcedure, &ListVaultsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Vaults, 1)
	assert.Equal(t, v.ID, list.SelectedVaultID)

	_, err = call[CreateVaultRequest, CreateVaultResponse](t, ts, CreateVaultProcedure, &CreateVaultRequest{Name: "  "})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[DeleteVaultRequest, DeleteVaultResponse](t, ts, DeleteVaultProcedure, &DeleteVaultRequest{VaultID: v.ID})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "deletion without confirmation")

	_, err = call[DeleteVaultRequest, DeleteVaultResponse](t, ts, DeleteVaultProcedure, &DeleteVaultRequest{VaultID: v.ID, Confirm: true})
	require.NoError(t, err)
	assert.Empty(t, ts.store.Vaults())

	_, err = call[SelectVaultRequest, SelectVaultResponse](t, ts, SelectVaultProcedure, &SelectVaultRequest{VaultID: v.ID})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestAddEntries(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")

	resp, err := call[AddEntriesRequest, AddEntriesResponse](t, ts, AddEntriesProcedure, &AddEntriesRequest{VaultID: v.ID, Identifiers: "111\n222, 111"})
	require.NoError(t, err)
	assert.Len(t, resp.Created, 2)
	assert.Empty(t, resp.Duplicates)

	resp, err = call[AddEntriesRequest, AddEntriesResponse](t, ts, AddEntriesProcedure, &AddEntriesRequest{VaultID: v.ID, Identifiers: "222,333"})
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "333", resp.Created[0].ServiceID)
	assert.Equal(t, []string{"222"}, resp.Duplicates)

	_, err = call[AddEntriesRequest, AddEntriesResponse](t, ts, AddEntriesProcedure, &AddEntriesRequest{VaultID: v.ID, Identifiers: "222"})
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	_, err = call[AddEntriesRequest, AddEntriesResponse](t, ts, AddEntriesProcedure, &AddEntriesRequest{VaultID: "nope", Identifiers: "444"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	// New entries are refreshed in the background; without a credential
	// every one of them fails.
	assert.Eventually(t, func() bool {
		for _, e := range ts.store.AllEntries() {
			if ts.board.Get(e.Entry.ID).Stage != refresh.StageFailed {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "missing_credential", ts.board.Get(resp.Created[0].ID).ErrorKind)
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	res, err := ts.store.AddEntries(context.Background(), v.ID, "5550001234")
	require.NoError(t, err)
	entry := res.Created[0]

	entry.Occupant = "R. Sharma"
	entry.Nickname = ""
	upd, err := call[UpdateEntryRequest, UpdateEntryResponse](t, ts, UpdateEntryProcedure, &UpdateEntryRequest{Entry: entry})
	require.NoError(t, err)
	assert.Equal(t, "R. Sharma", upd.Entry.Occupant)
	assert.Equal(t, "Meter 1234", upd.Entry.Nickname)

	_, err = call[DeleteEntryRequest, DeleteEntryResponse](t, ts, DeleteEntryProcedure, &DeleteEntryRequest{EntryID: entry.ID})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[DeleteEntryRequest, DeleteEntryResponse](t, ts, DeleteEntryProcedure, &DeleteEntryRequest{EntryID: entry.ID, Confirm: true})
	require.NoError(t, err)

	_, err = call[DeleteEntryRequest, DeleteEntryResponse](t, ts, DeleteEntryProcedure, &DeleteEntryRequest{EntryID: entry.ID, Confirm: true})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestRefreshEntry(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	res, err := ts.store.AddEntries(context.Background(), v.ID, "5550001234")
	require.NoError(t, err)
	id := res.Created[0].ID

	t.Run("missing credential is reported in the status", func(t *testing.T) {
		resp, err := call[RefreshEntryRequest, RefreshEntryResponse](t, ts, RefreshEntryProcedure, &RefreshEntryRequest{EntryID: id})
		require.NoError(t, err)
		assert.Equal(t, refresh.StageFailed, resp.Status.Stage)
		assert.Equal(t, "missing_credential", resp.Status.ErrorKind)
		assert.Nil(t, resp.Entry.Bill)
	})

	t.Run("success stores the snapshot", func(t *testing.T) {
		setAPIKey(t, ts)
		resp, err := call[RefreshEntryRequest, RefreshEntryResponse](t, ts, RefreshEntryProcedure, &RefreshEntryRequest{EntryID: id})
		require.NoError(t, err)
		assert.Equal(t, refresh.StageDone, resp.Status.Stage)
		assert.Empty(t, resp.Status.Error)
		require.NotNil(t, resp.Entry.Bill)
		assert.Equal(t, "Consumer 5550001234", resp.Entry.Bill.ConsumerName)
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := call[RefreshEntryRequest, RefreshEntryResponse](t, ts, RefreshEntryProcedure, &RefreshEntryRequest{EntryID: "nope"})
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestRefreshAll(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	setAPIKey(t, ts)
	_, err := ts.store.AddEntries(context.Background(), v.ID, "1001,1002")
	require.NoError(t, err)

	resp, err := call[RefreshAllRequest, RefreshAllResponse](t, ts, RefreshAllProcedure, &RefreshAllRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Started)

	assert.Eventually(t, func() bool {
		for _, e := range ts.store.AllEntries() {
			if e.Entry.Bill == nil {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t)

	got, err := call[GetSettingsRequest, GetSettingsResponse](t, ts, GetSettingsProcedure, &GetSettingsRequest{})
	require.NoError(t, err)
	assert.False(t, got.Settings.CredentialSet)
	assert.False(t, got.Settings.RefreshSchedule.Enabled)

	bad := models.RefreshSchedule{Enabled: true, Value: 0, Unit: models.UnitHours}
	_, err = call[UpdateSettingsRequest, UpdateSettingsResponse](t, ts, UpdateSettingsProcedure, &UpdateSettingsRequest{RefreshSchedule: &bad})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	setAPIKey(t, ts)
	sched := models.RefreshSchedule{Enabled: true, Value: 6, Unit: models.UnitHours}
	upd, err := call[UpdateSettingsRequest, UpdateSettingsResponse](t, ts, UpdateSettingsProcedure, &UpdateSettingsRequest{RefreshSchedule: &sched})
	require.NoError(t, err)
	assert.True(t, upd.Settings.CredentialSet, "credential kept across partial update")
	assert.Equal(t, sched, upd.Settings.RefreshSchedule)
	assert.Equal(t, "sk-test", ts.store.Settings().APIKey)
}

func TestDuesAndShareLink(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	setAPIKey(t, ts)
	res, err := ts.store.AddEntries(context.Background(), v.ID, "5550001234")
	require.NoError(t, err)
	id := res.Created[0].ID

	_, err = call[RefreshEntryRequest, RefreshEntryResponse](t, ts, RefreshEntryProcedure, &RefreshEntryRequest{EntryID: id})
	require.NoError(t, err)

	dues, err := call[GetDuesRequest, GetDuesResponse](t, ts, GetDuesProcedure, &GetDuesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, dues.Dues.Unpaid)
	assert.True(t, dues.Dues.Outstanding.Equal(decimal.NewFromInt(1100)), "outstanding = %s", dues.Dues.Outstanding)

	link, err := call[ShareLinkRequest, ShareLinkResponse](t, ts, ShareLinkProcedure, &ShareLinkRequest{EntryID: id, Phone: "098765 43210"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://wa.me/919876543210?text="), link.URL)

	_, err = call[ShareLinkRequest, ShareLinkResponse](t, ts, ShareLinkProcedure, &ShareLinkRequest{EntryID: id})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "no phone on entry or request")
}

func TestReportPDF(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	res, err := ts.store.AddEntries(context.Background(), v.ID, "5550001234")
	require.NoError(t, err)

	resp, err := http.Get(ts.srv.URL + "/entries/" + res.Created[0].ID + "/report.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	missing, err := http.Get(ts.srv.URL + "/entries/nope/report.pdf")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestBackupEndpoints(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	_, err := ts.store.AddEntries(context.Background(), v.ID, "1001,1002")
	require.NoError(t, err)

	resp, err := http.Get(ts.srv.URL + "/backup")
	require.NoError(t, err)
	exported, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "billvault-")

	bad, err := http.Post(ts.srv.URL+"/backup", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	var body errorBody
	require.NoError(t, json.NewDecoder(bad.Body).Decode(&body))
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Equal(t, "invalid_backup_file", body.Kind)
	assert.Len(t, ts.store.Vaults(), 1, "invalid import leaves state untouched")

	snap, err := http.Post(ts.srv.URL+"/backup/snapshots", "application/json", nil)
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.NewDecoder(snap.Body).Decode(&created))
	snap.Body.Close()
	require.Equal(t, http.StatusCreated, snap.StatusCode)

	require.NoError(t, ts.store.DeleteVault(context.Background(), v.ID))
	restored, err := http.Post(ts.srv.URL+"/backup/snapshots/"+created["name"]+"/restore", "application/json", nil)
	require.NoError(t, err)
	restored.Body.Close()
	require.Equal(t, http.StatusOK, restored.StatusCode)
	require.Len(t, ts.store.Vaults(), 1)
	assert.Len(t, ts.store.Vaults()[0].Entries, 2)

	missing, err := http.Post(ts.srv.URL+"/backup/snapshots/nope.json/restore", "application/json", nil)
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	imported, err := http.Post(ts.srv.URL+"/backup", "application/json", bytes.NewReader(exported))
	require.NoError(t, err)
	imported.Body.Close()
	assert.Equal(t, http.StatusOK, imported.StatusCode)
}

func TestStatusFeed(t *testing.T) {
	ts := newTestServer(t)
	v := createVault(t, ts, "Hill View")
	res, err := ts.store.AddEntries(context.Background(), v.ID, "5550001234")
	require.NoError(t, err)
	id := res.Created[0].ID

	// A known status is replayed on connect, which also tells us the
	// session is registered.
	ts.board.Apply("earlier", refresh.Event{Kind: refresh.EventSucceeded, At: time.Now()})

	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var replayed refresh.Status
	require.NoError(t, json.Unmarshal(data, &replayed))
	assert.Equal(t, "earlier", replayed.EntryID)
	assert.Equal(t, refresh.StageDone, replayed.Stage)

	_, err = call[RefreshEntryRequest, RefreshEntryResponse](t, ts, RefreshEntryProcedure, &RefreshEntryRequest{EntryID: id})
	require.NoError(t, err)

	var stages []refresh.Stage
	for len(stages) < 2 {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var st refresh.Status
		require.NoError(t, json.Unmarshal(data, &st))
		if st.EntryID == id {
			stages = append(stages, st.Stage)
		}
	}
	assert.Equal(t, []refresh.Stage{refresh.StageFetching, refresh.StageFailed}, stages)
}
