package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/async"
	"github.com/bootpe/pluginmart/pkg/download"
	"github.com/bootpe/pluginmart/pkg/mode"
	"github.com/bootpe/pluginmart/pkg/observability"
	"github.com/bootpe/pluginmart/pkg/plugin"
	"github.com/bootpe/pluginmart/pkg/registry"
	"github.com/bootpe/pluginmart/pkg/scanner"
)

// RootProvider supplies the current boot root. The second return value is
// false when no boot drive has been selected.
type RootProvider interface {
	CurrentRoot() (string, bool)
}

// StaticRoot is a RootProvider pinned to a fixed path. An empty value
// reports no root.
type StaticRoot string

func (r StaticRoot) CurrentRoot() (string, bool) {
	return string(r), r != ""
}

// Config collects the orchestrator's collaborators.
type Config struct {
	Mode        mode.Mode
	Roots       RootProvider
	DownloadDir string
	Registry    *registry.Registry
	Scanner     *scanner.Scanner
	Engine      *download.Engine
	Pool        *async.Pool
	Log         *logrus.Logger
	Metrics     *observability.Metrics
}

// Orchestrator runs plugin lifecycle operations in the background and
// tracks them in a task registry.
type Orchestrator struct {
	cfg     Config
	log     *logrus.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	tasks map[string]Task
}

// New builds an Orchestrator from its collaborators. Log and Metrics must
// be non-nil; the daemon wires shared instances.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		log:     cfg.Log,
		metrics: cfg.Metrics,
		tasks:   make(map[string]Task),
	}
}

// Install downloads a remote plugin into the boot drive's plugin directory
// under its canonical file name, then rescans. The download runs in the
// background; Install returns once the task is accepted.
func (o *Orchestrator) Install(p plugin.Plugin) error {
	root, ok := o.cfg.Roots.CurrentRoot()
	if !ok {
		return ErrNoBootRoot
	}

	t := newTask(p.ID(), KindInstall, p.Name)
	return o.submit(t, func(ctx context.Context) error {
		dir := scanner.PluginDir(root, o.cfg.Mode)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating plugin directory: %w", err)
		}

		dest := filepath.Join(dir, plugin.Encode(p, o.cfg.Mode))
		if err := o.fetch(ctx, t.ID, p.Link, dest); err != nil {
			return err
		}

		o.rescan(root)
		return nil
	})
}

// Update replaces the installed file for the remote plugin's identity with
// the new canonical file. The old file is deleted before the download
// starts; a failed delete aborts the update so two versions are never
// installed side by side.
func (o *Orchestrator) Update(p plugin.Plugin) error {
	root, ok := o.cfg.Roots.CurrentRoot()
	if !ok {
		return ErrNoBootRoot
	}

	t := newTask(p.ID(), KindUpdate, p.Name)
	return o.submit(t, func(ctx context.Context) error {
		dir := scanner.PluginDir(root, o.cfg.Mode)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating plugin directory: %w", err)
		}

		if local, ok := o.cfg.Registry.EnabledByID(p.ID()); ok {
			if err := o.Delete(local); err != nil {
				return fmt.Errorf("removing old version: %w", err)
			}
		}

		dest := filepath.Join(dir, plugin.Encode(p, o.cfg.Mode))
		if err := o.fetch(ctx, t.ID, p.Link, dest); err != nil {
			return err
		}

		o.rescan(root)
		return nil
	})
}

// Enable renames a disabled plugin file back to its enabled form and
// rescans.
func (o *Orchestrator) Enable(p plugin.Plugin) error {
	root, ok := o.cfg.Roots.CurrentRoot()
	if !ok {
		return ErrNoBootRoot
	}
	return o.renameOp(newTask(p.ID(), KindEnable, p.Name), root, p.File, enabledName(p.File, o.cfg.Mode))
}

// Disable renames an enabled plugin file to its disabled form and rescans.
// For HotPE a file without the expected ".HPM" suffix gets a plain ".off"
// appended instead; this mirrors long-standing behavior other tooling may
// rely on.
func (o *Orchestrator) Disable(p plugin.Plugin) error {
	root, ok := o.cfg.Roots.CurrentRoot()
	if !ok {
		return ErrNoBootRoot
	}
	return o.renameOp(newTask(p.ID(), KindDisable, p.Name), root, p.File, disabledName(p.File, o.cfg.Mode))
}

// Delete removes a plugin file from the plugin directory. It runs
// synchronously and does not rescan; callers decide whether the registry
// needs refreshing.
func (o *Orchestrator) Delete(p plugin.Plugin) error {
	root, ok := o.cfg.Roots.CurrentRoot()
	if !ok {
		return ErrNoBootRoot
	}

	path := filepath.Join(scanner.PluginDir(root, o.cfg.Mode), p.File)
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting %s: %w", p.File, err)
	}
	return nil
}

// DownloadTo streams a remote plugin into an arbitrary directory under its
// canonical file name. An empty dir falls back to the configured default
// download directory. No rescan; the file lands outside the plugin
// directory.
func (o *Orchestrator) DownloadTo(p plugin.Plugin, dir string) error {
	if dir == "" {
		dir = o.cfg.DownloadDir
	}
	if dir == "" {
		return ErrNoDownloadDir
	}

	t := newTask(p.ID(), KindDownload, p.Name)
	return o.submit(t, func(ctx context.Context) error {
		dest := filepath.Join(dir, plugin.Encode(p, o.cfg.Mode))
		return o.fetch(ctx, t.ID, p.Link, dest)
	})
}

// Rescan refreshes the registry's local snapshots from the current boot
// drive. Safe to call from watchers and cron jobs.
func (o *Orchestrator) Rescan() error {
	root, ok := o.cfg.Roots.CurrentRoot()
	if !ok {
		return ErrNoBootRoot
	}
	o.rescan(root)
	return nil
}

// submit registers the task and queues its work. The task entry is
// removed when the work completes, whatever the outcome.
func (o *Orchestrator) submit(t Task, fn func(context.Context) error) error {
	if !o.begin(t) {
		return ErrTaskInFlight
	}

	err := o.cfg.Pool.Submit(string(t.Kind)+" "+t.Plugin, func(ctx context.Context) error {
		defer o.finish(t)

		log := o.log.WithFields(logrus.Fields{
			"task":   t.ID,
			"kind":   t.Kind,
			"plugin": t.Plugin,
		})

		if err := fn(ctx); err != nil {
			o.metrics.LifecycleOpsTotal.WithLabelValues(string(t.Kind), "failure").Inc()
			log.Warnf("Operation failed after %v: %v", time.Since(t.Started).Round(time.Millisecond), err)
			return err
		}

		o.metrics.LifecycleOpsTotal.WithLabelValues(string(t.Kind), "success").Inc()
		log.Infof("Operation completed in %v", time.Since(t.Started).Round(time.Millisecond))
		return nil
	})
	if err != nil {
		o.finish(t)
		return err
	}
	return nil
}

// renameOp performs an enable/disable rename then a rescan as a tracked
// background task. The existence check happens up front so the caller
// gets ErrNotFound synchronously.
func (o *Orchestrator) renameOp(t Task, root, oldName, newName string) error {
	dir := scanner.PluginDir(root, o.cfg.Mode)
	oldPath := filepath.Join(dir, oldName)
	if _, err := os.Stat(oldPath); err != nil {
		return ErrNotFound
	}

	return o.submit(t, func(ctx context.Context) error {
		if err := os.Rename(oldPath, filepath.Join(dir, newName)); err != nil {
			return fmt.Errorf("renaming %s: %w", oldName, err)
		}
		o.rescan(root)
		return nil
	})
}

// fetch downloads url to dest, recording transfer metrics. The task id
// keys the engine's progress record so the task snapshot can report it.
func (o *Orchestrator) fetch(ctx context.Context, taskID, url, dest string) error {
	modeLabel := o.cfg.Mode.String()
	start := time.Now()

	if err := o.cfg.Engine.Download(ctx, taskID, url, dest); err != nil {
		o.metrics.DownloadErrors.WithLabelValues(modeLabel).Inc()
		return err
	}

	o.metrics.DownloadDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())
	if info, err := os.Stat(dest); err == nil {
		o.metrics.DownloadBytesTotal.WithLabelValues(modeLabel).Add(float64(info.Size()))
	}
	return nil
}

// rescan refreshes the registry snapshots. On failure the previous
// snapshots are kept and the error is logged.
func (o *Orchestrator) rescan(root string) {
	modeLabel := o.cfg.Mode.String()
	start := time.Now()

	enabled, disabled, err := o.cfg.Scanner.Scan(scanner.PluginDir(root, o.cfg.Mode), o.cfg.Mode)
	if err != nil {
		o.metrics.ScanErrors.WithLabelValues(modeLabel).Inc()
		o.log.Warnf("Plugin rescan failed, keeping previous snapshot: %v", err)
		return
	}

	o.metrics.ScanDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())
	o.cfg.Registry.SetLocal(enabled, disabled)
}

// enabledName maps a disabled file name back to its enabled form. Names
// without the disabled suffix come back unchanged.
func enabledName(name string, m mode.Mode) string {
	switch m {
	case mode.CloudPE:
		return swapSuffix(name, ".CBK", ".ce")
	case mode.HotPE:
		return swapSuffix(name, ".hpm.off", ".HPM")
	case mode.Edgeless:
		return swapSuffix(name, ".7zf", ".7z")
	default:
		return name
	}
}

// disabledName maps an enabled file name to its disabled form.
func disabledName(name string, m mode.Mode) string {
	switch m {
	case mode.CloudPE:
		return swapSuffix(name, ".ce", ".CBK")
	case mode.HotPE:
		if strings.HasSuffix(name, ".HPM") {
			return swapSuffix(name, ".HPM", ".hpm.off")
		}
		return name + ".off"
	case mode.Edgeless:
		return swapSuffix(name, ".7z", ".7zf")
	default:
		return name
	}
}

func swapSuffix(name, old, repl string) string {
	if !strings.HasSuffix(name, old) {
		return name
	}
	return strings.TrimSuffix(name, old) + repl
}
