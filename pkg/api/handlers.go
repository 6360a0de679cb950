package api

import (
	"errors"
	"net/http"

	"github.com/bootpe/pluginmart/pkg/async"
	"github.com/bootpe/pluginmart/pkg/catalog"
	"github.com/bootpe/pluginmart/pkg/httputil"
	"github.com/bootpe/pluginmart/pkg/lifecycle"
	"github.com/bootpe/pluginmart/pkg/plugin"
)

// getMode reports what ecosystem the daemon manages and its display names.
func (s *Server) getMode(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{
		"mode":        s.mode.String(),
		"server":      s.mode.ServerName(),
		"market_name": s.mode.MarketName(),
		"manage_name": s.mode.ManageName(),
		"title":       s.mode.Title(),
	})
}

func (s *Server) getConnectivity(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Probe(r.Context(), s.mode); err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, map[string]bool{"ok": true})
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.reg.Categories())
}

// refreshCatalog fetches the remote catalog and swaps it into the
// registry. The fetch runs synchronously on the request.
func (s *Server) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.Fetch(r.Context(), s.mode)
	if err != nil {
		s.log.Warnf("Catalog refresh failed: %v", err)

		var netErr *catalog.NetworkError
		if errors.As(err, &netErr) {
			httputil.WriteServiceUnavailable(w, err.Error())
			return
		}
		var protoErr *catalog.ProtocolError
		if errors.As(err, &protoErr) {
			httputil.WriteError(w, http.StatusBadGateway, err)
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	s.reg.SetCatalog(categories)
	httputil.WriteSuccess(w, map[string]int{"categories": len(categories)})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	keyword := httputil.ParseQueryString(r, "q", "")
	if !httputil.RequireNonEmpty(w, keyword, "q") {
		return
	}
	httputil.WriteSuccess(w, s.reg.Search(keyword))
}

func (s *Server) getEnabled(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.reg.EnabledPlugins())
}

func (s *Server) getDisabled(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.reg.DisabledPlugins())
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	remote, found := s.reg.FindRemote(id)
	if !found {
		httputil.WriteNotFoundError(w, "plugin not in catalog")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"id":     id,
		"status": s.reg.StatusOf(remote),
	})
}

func (s *Server) installPlugin(w http.ResponseWriter, r *http.Request) {
	s.startRemoteOp(w, r, lifecycle.KindInstall, s.orch.Install)
}

func (s *Server) updatePlugin(w http.ResponseWriter, r *http.Request) {
	s.startRemoteOp(w, r, lifecycle.KindUpdate, s.orch.Update)
}

// startRemoteOp resolves the catalog entry and hands it to the
// orchestrator, translating lifecycle errors to HTTP statuses.
func (s *Server) startRemoteOp(w http.ResponseWriter, r *http.Request, kind lifecycle.Kind, op func(plugin.Plugin) error) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	remote, found := s.reg.FindRemote(id)
	if !found {
		httputil.WriteNotFoundError(w, "plugin not in catalog")
		return
	}

	if err := op(remote); err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	httputil.WriteAccepted(w, map[string]string{"id": id, "kind": string(kind)})
}

// fileRequest names a local plugin file for enable/disable/delete.
type fileRequest struct {
	File string `json:"file"`
}

func (s *Server) enablePlugin(w http.ResponseWriter, r *http.Request) {
	s.startLocalOp(w, r, lifecycle.KindEnable, s.orch.Enable)
}

func (s *Server) disablePlugin(w http.ResponseWriter, r *http.Request) {
	s.startLocalOp(w, r, lifecycle.KindDisable, s.orch.Disable)
}

// startLocalOp decodes the file name under the mode's grammar and hands
// the resulting plugin to the orchestrator.
func (s *Server) startLocalOp(w http.ResponseWriter, r *http.Request, kind lifecycle.Kind, op func(plugin.Plugin) error) {
	var req fileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.File, "file") {
		return
	}

	p, ok := plugin.Decode(req.File, s.mode)
	if !ok {
		httputil.WriteBadRequest(w, "file name does not match the plugin naming scheme")
		return
	}

	if err := op(p); err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	httputil.WriteAccepted(w, map[string]string{"file": req.File, "kind": string(kind)})
}

// deletePlugin removes a local plugin file and refreshes the registry.
func (s *Server) deletePlugin(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.File, "file") {
		return
	}

	p, ok := plugin.Decode(req.File, s.mode)
	if !ok {
		httputil.WriteBadRequest(w, "file name does not match the plugin naming scheme")
		return
	}

	if err := s.orch.Delete(p); err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	if err := s.orch.Rescan(); err != nil {
		s.log.Warnf("Rescan after delete failed: %v", err)
	}
	httputil.WriteNoContent(w)
}

// downloadRequest optionally overrides the destination directory.
type downloadRequest struct {
	Dir string `json:"dir"`
}

func (s *Server) downloadPlugin(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	remote, found := s.reg.FindRemote(id)
	if !found {
		httputil.WriteNotFoundError(w, "plugin not in catalog")
		return
	}

	var req downloadRequest
	if r.ContentLength > 0 && !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.orch.DownloadTo(remote, req.Dir); err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	httputil.WriteAccepted(w, map[string]string{"id": id, "kind": string(lifecycle.KindDownload)})
}

func (s *Server) getTasks(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.orch.Tasks())
}

func (s *Server) getInFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	kind, ok := httputil.ParsePathStringOrError(w, r, "kind")
	if !ok {
		return
	}

	httputil.WriteSuccess(w, map[string]bool{
		"in_flight": s.orch.InFlight(id, lifecycle.Kind(kind)),
	})
}

// getProgress reports the progress records of all running transfers,
// keyed by task id.
func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.engine.Transfers())
}

func (s *Server) getDrives(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.drives.Drives())
}

func (s *Server) getCurrentDrive(w http.ResponseWriter, r *http.Request) {
	root, ok := s.drives.CurrentRoot()
	if !ok {
		httputil.WriteNotFoundError(w, "no boot drive selected")
		return
	}
	httputil.WriteSuccess(w, map[string]string{"root": root})
}

// driveRequest selects a boot drive by root path.
type driveRequest struct {
	Root string `json:"root"`
}

func (s *Server) setCurrentDrive(w http.ResponseWriter, r *http.Request) {
	var req driveRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Root, "root") {
		return
	}

	s.drives.SetCurrent(req.Root)
	if err := s.orch.Rescan(); err != nil {
		s.log.Warnf("Rescan after drive selection failed: %v", err)
	}
	httputil.WriteSuccess(w, map[string]string{"root": req.Root})
}

func (s *Server) reloadDrives(w http.ResponseWriter, r *http.Request) {
	s.drives.Reload()
	httputil.WriteSuccess(w, s.drives.Drives())
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// writeLifecycleError maps orchestrator errors to HTTP statuses.
func (s *Server) writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrTaskInFlight):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, lifecycle.ErrNoBootRoot), errors.Is(err, lifecycle.ErrNoDownloadDir):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, async.ErrQueueFull):
		httputil.WriteServiceUnavailable(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
