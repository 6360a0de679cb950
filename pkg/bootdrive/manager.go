package bootdrive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/mode"
)

// Drive is one discovered boot drive.
type Drive struct {
	Root    string `json:"root"`
	Version string `json:"version"`
}

// Manager holds the discovered drives and the current selection.
type Manager struct {
	mode  mode.Mode
	roots func() []string
	log   *logrus.Logger

	mu      sync.RWMutex
	drives  []Drive
	current string
}

// DriveLetterRoots enumerates the candidate roots "A:" through "Z:".
func DriveLetterRoots() []string {
	roots := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		roots = append(roots, string(c)+":")
	}
	return roots
}

// NewManager builds a Manager scanning the standard drive letters and
// performs an initial scan.
func NewManager(m mode.Mode, log *logrus.Logger) *Manager {
	return NewManagerWithRoots(m, DriveLetterRoots, log)
}

// NewManagerWithRoots is NewManager with an injectable candidate root
// list, so tests can point the scan at temp directories.
func NewManagerWithRoots(m mode.Mode, roots func() []string, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	mgr := &Manager{mode: m, roots: roots, log: log}
	mgr.Reload()
	return mgr
}

// Reload rescans the candidate roots and replaces the drive list. The
// current selection is kept even if its drive disappeared; callers that
// care re-select from Drives().
func (mgr *Manager) Reload() {
	var drives []Drive
	for _, root := range mgr.roots() {
		if d, ok := mgr.probe(root); ok {
			drives = append(drives, d)
		}
	}
	mgr.log.Debugf("Boot drive scan found %d drive(s) for %s", len(drives), mgr.mode)

	mgr.mu.Lock()
	mgr.drives = drives
	mgr.mu.Unlock()
}

// Drives returns a copy of the discovered drive list.
func (mgr *Manager) Drives() []Drive {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	out := make([]Drive, len(mgr.drives))
	copy(out, mgr.drives)
	return out
}

// SetCurrent selects the boot drive subsequent operations target.
func (mgr *Manager) SetCurrent(root string) {
	mgr.mu.Lock()
	mgr.current = root
	mgr.mu.Unlock()
}

// CurrentRoot returns the selected boot root. The second return value is
// false when nothing has been selected yet.
func (mgr *Manager) CurrentRoot() (string, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return mgr.current, mgr.current != ""
}

// probe checks a single root for the mode's markers.
func (mgr *Manager) probe(root string) (Drive, bool) {
	switch mgr.mode {
	case mode.CloudPE:
		if !isCloudPE(root) {
			return Drive{}, false
		}
		version, err := cloudPEVersion(root)
		if err != nil {
			mgr.log.Debugf("Skipping %s: %v", root, err)
			return Drive{}, false
		}
		return Drive{Root: root, Version: version}, true

	case mode.HotPE:
		if dirExists(filepath.Join(root, "HotPEModule")) {
			return Drive{Root: root, Version: "HotPE"}, true
		}
		if isCloudPE(root) {
			return Drive{Root: root, Version: "Cloud-PE (HotPE compatible)"}, true
		}
		return Drive{}, false

	case mode.Edgeless:
		if dirExists(filepath.Join(root, "Edgeless", "Resource")) {
			return Drive{Root: root, Version: "Edgeless"}, true
		}
		if isCloudPE(root) {
			return Drive{Root: root, Version: "Cloud-PE (Edgeless compatible)"}, true
		}
		return Drive{}, false

	default:
		return Drive{}, false
	}
}

// isCloudPE reports whether the root carries both Cloud-PE markers.
func isCloudPE(root string) bool {
	config := filepath.Join(root, "cloud-pe", "config.json")
	iso := filepath.Join(root, "Cloud-PE.iso")
	return fileExists(config) && fileExists(iso)
}

// cloudPEVersion reads the PE version from the drive's config.json.
func cloudPEVersion(root string) (string, error) {
	path := filepath.Join(root, "cloud-pe", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg struct {
		PE struct {
			Version string `json:"version"`
		} `json:"pe"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.PE.Version == "" {
		return "", fmt.Errorf("%s carries no pe.version", path)
	}
	return cfg.PE.Version, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
