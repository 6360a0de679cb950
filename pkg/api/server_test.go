package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootpe/pluginmart/pkg/async"
	"github.com/bootpe/pluginmart/pkg/bootdrive"
	"github.com/bootpe/pluginmart/pkg/catalog"
	"github.com/bootpe/pluginmart/pkg/download"
	"github.com/bootpe/pluginmart/pkg/lifecycle"
	"github.com/bootpe/pluginmart/pkg/mode"
	"github.com/bootpe/pluginmart/pkg/observability"
	"github.com/bootpe/pluginmart/pkg/plugin"
	"github.com/bootpe/pluginmart/pkg/registry"
	"github.com/bootpe/pluginmart/pkg/scanner"
)

type stubCatalog struct {
	categories []plugin.Category
	fetchErr   error
	probeErr   error
}

func (s *stubCatalog) Fetch(ctx context.Context, m mode.Mode) ([]plugin.Category, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.categories, nil
}

func (s *stubCatalog) Probe(ctx context.Context, m mode.Mode) error {
	return s.probeErr
}

type testServer struct {
	srv    *Server
	reg    *registry.Registry
	orch   *lifecycle.Orchestrator
	stub   *stubCatalog
	drives *bootdrive.Manager
	root   string
}

// newTestServer wires a server against a CloudPE-marked temp drive.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte(`{"pe":{"version":"1.0"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cloud-PE.iso"), []byte("iso"), 0o644))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	drives := bootdrive.NewManagerWithRoots(mode.CloudPE, func() []string { return []string{root} }, log)
	drives.SetCurrent(root)

	pool := async.NewPool(context.Background(), 4, log)
	t.Cleanup(func() { _ = pool.Shutdown(5 * time.Second) })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	reg := registry.New(metrics)
	engine := download.NewEngine(http.DefaultClient, download.NewLimiter(4))
	orch := lifecycle.New(lifecycle.Config{
		Mode:     mode.CloudPE,
		Roots:    drives,
		Registry: reg,
		Scanner:  scanner.NewScanner(log),
		Engine:   engine,
		Pool:     pool,
		Log:      log,
		Metrics:  metrics,
	})

	stub := &stubCatalog{}
	srv := NewServer(Config{
		Mode:     mode.CloudPE,
		Registry: reg,
		Orch:     orch,
		Catalog:  stub,
		Drives:   drives,
		Engine:   engine,
		Log:      log,
	})

	return &testServer{srv: srv, reg: reg, orch: orch, stub: stub, drives: drives, root: root}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func seedCatalog(reg *registry.Registry, plugins ...plugin.Plugin) {
	reg.SetCatalog([]plugin.Category{{Class: "Tools", List: plugins}})
}

func TestGetMode(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/mode", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cloudpe", body["mode"])
	assert.Equal(t, "Cloud-PE", body["server"])
	assert.Equal(t, "Plugin Market", body["market_name"])
}

func TestGetCategories(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(ts.reg, plugin.Plugin{Name: "tool", Version: "1.0", Author: "alice", Size: "1.00 MB"})

	rec := ts.do(t, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cats []plugin.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "Tools", cats[0].Class)
	require.Len(t, cats[0].List, 1)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(ts.reg,
		plugin.Plugin{Name: "browser", Version: "1.0", Author: "alice", Size: "1.00 MB"},
		plugin.Plugin{Name: "editor", Version: "2.0", Author: "bob", Size: "2.00 MB"},
	)

	rec := ts.do(t, http.MethodGet, "/api/v1/search?q=brow", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []plugin.Plugin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "browser", results[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshCatalog(t *testing.T) {
	ts := newTestServer(t)
	ts.stub.categories = []plugin.Category{{Class: "Tools", List: []plugin.Plugin{
		{Name: "tool", Version: "1.0", Author: "alice", Size: "1.00 MB"},
	}}}

	rec := ts.do(t, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, ts.reg.Categories(), 1)
}

func TestRefreshCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"network error", &catalog.NetworkError{URL: "http://x", Err: context.DeadlineExceeded}, http.StatusServiceUnavailable},
		{"protocol error", &catalog.ProtocolError{URL: "http://x", Message: "bad state"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.stub.fetchErr = tt.err
			rec := ts.do(t, http.MethodPost, "/api/v1/refresh", "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestConnectivity(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/connectivity", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.stub.probeErr = &catalog.NetworkError{URL: "http://x", Err: context.DeadlineExceeded}
	rec = ts.do(t, http.MethodGet, "/api/v1/connectivity", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	remote := plugin.Plugin{Name: "tool", Version: "2.0", Author: "alice", Size: "1.00 MB"}
	seedCatalog(ts.reg, remote)
	ts.reg.SetLocal([]plugin.Plugin{{Name: "tool", Version: "1.0", Author: "alice"}}, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/plugins/tool_alice/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "update_available", body["status"])

	rec = ts.do(t, http.MethodGet, "/api/v1/plugins/ghost_nobody/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInstallEndpoint(t *testing.T) {
	payload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plugin bytes"))
	}))
	defer payload.Close()

	ts := newTestServer(t)
	remote := plugin.Plugin{Name: "tool", Version: "1.0", Author: "alice", Describe: "helper", Size: "1.00 MB", Link: payload.URL}
	seedCatalog(ts.reg, remote)

	rec := ts.do(t, http.MethodPost, "/api/v1/plugins/tool_alice/install", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return !ts.orch.InFlight("tool_alice", lifecycle.KindInstall)
	}, 5*time.Second, 10*time.Millisecond)

	assert.FileExists(t, filepath.Join(ts.root, "ce-apps", "tool_1.0_alice_helper.ce"))
	assert.Len(t, ts.reg.EnabledPlugins(), 1)
}

func TestInstallUnknownPlugin(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/plugins/ghost_nobody/install", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnableRejectsMalformedFilename(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/plugins/enable", `{"file":"garbage.txt"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDisableEndpoint(t *testing.T) {
	ts := newTestServer(t)
	dir := filepath.Join(ts.root, "ce-apps")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool_1.0_alice_helper.ce"), []byte("x"), 0o644))

	rec := ts.do(t, http.MethodPost, "/api/v1/plugins/disable", `{"file":"tool_1.0_alice_helper.ce"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return !ts.orch.InFlight("tool_alice", lifecycle.KindDisable)
	}, 5*time.Second, 10*time.Millisecond)

	assert.FileExists(t, filepath.Join(dir, "tool_1.0_alice_helper.CBK"))
}

func TestDeleteEndpoint(t *testing.T) {
	ts := newTestServer(t)
	dir := filepath.Join(ts.root, "ce-apps")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool_1.0_alice_helper.ce"), []byte("x"), 0o644))

	rec := ts.do(t, http.MethodPost, "/api/v1/plugins/delete", `{"file":"tool_1.0_alice_helper.ce"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoFileExists(t, filepath.Join(dir, "tool_1.0_alice_helper.ce"))
}

func TestDeleteMissingFile(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/plugins/delete", `{"file":"tool_1.0_alice_helper.ce"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDriveEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/drives", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var drives []bootdrive.Drive
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drives))
	require.Len(t, drives, 1)
	assert.Equal(t, ts.root, drives[0].Root)
	assert.Equal(t, "1.0", drives[0].Version)

	rec = ts.do(t, http.MethodGet, "/api/v1/drives/current", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/drives/current", `{"root":"`+ts.root+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/drives/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTasksAndProgress(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var prog map[string]download.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Empty(t, prog)
}

func TestInFlightEndpoint(t *testing.T) {
	release := make(chan struct{})
	payload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("slow"))
	}))
	defer payload.Close()
	defer close(release)

	ts := newTestServer(t)
	seedCatalog(ts.reg, plugin.Plugin{Name: "tool", Version: "1.0", Author: "alice", Describe: "d", Size: "1.00 MB", Link: payload.URL})

	rec := ts.do(t, http.MethodGet, "/api/v1/plugins/tool_alice/tasks/install", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"in_flight":false`)

	require.Equal(t, http.StatusAccepted, ts.do(t, http.MethodPost, "/api/v1/plugins/tool_alice/install", "").Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/plugins/tool_alice/tasks/install", "")
	assert.Contains(t, rec.Body.String(), `"in_flight":true`)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
