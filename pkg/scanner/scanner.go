package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/format"
	"github.com/bootpe/pluginmart/pkg/mode"
	"github.com/bootpe/pluginmart/pkg/plugin"
)

// Scanner enumerates a plugin directory and decodes its contents.
type Scanner struct {
	log *logrus.Logger
}

// NewScanner creates a directory scanner. A nil logger falls back to the
// logrus default.
func NewScanner(log *logrus.Logger) *Scanner {
	if log == nil {
		log = logrus.New()
	}
	return &Scanner{log: log}
}

// Scan enumerates dir and returns the enabled and disabled plugin lists.
// A missing directory is created, not an error. Entry order follows
// directory iteration order; both lists are deduplicated independently.
func (s *Scanner) Scan(dir string, m mode.Mode) (enabled, disabled []plugin.Plugin, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create plugin directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read plugin directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		isEnabled, isDisabled := classify(name, m)
		if !isEnabled && !isDisabled {
			continue
		}

		p, ok := plugin.Decode(name, m)
		if !ok {
			s.log.Debugf("Skipping unrecognized plugin file: %s", name)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.log.Warnf("Failed to stat %s: %v", name, err)
			continue
		}
		p.Size = format.FileSize(info.Size())

		if isEnabled {
			enabled = append(enabled, p)
		} else {
			disabled = append(disabled, p)
		}
	}

	enabled = plugin.Dedup(enabled)
	disabled = plugin.Dedup(disabled)

	s.log.Debugf("Scanned %s: %d enabled, %d disabled", dir, len(enabled), len(disabled))
	return enabled, disabled, nil
}

// PluginDir returns the plugin directory for a boot root under the mode's
// folder convention.
func PluginDir(root string, m mode.Mode) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(m.PluginFolder(), `\`, "/")))
}

// classify decides whether a file name is an enabled or a disabled plugin
// for the mode. HotPE disabled files carry a compound ".hpm.off" suffix, so
// the plain-extension rule alone would misfile them.
func classify(name string, m mode.Mode) (enabled, disabled bool) {
	lower := strings.ToLower(name)

	if m == mode.HotPE {
		disabled = strings.HasSuffix(lower, ".hpm.off")
		enabled = strings.HasSuffix(lower, ".hpm") && !disabled
		return enabled, disabled
	}

	ext := strings.TrimPrefix(filepath.Ext(lower), ".")
	enabled = ext == strings.ToLower(m.EnabledExtension()) && m.EnabledExtension() != ""
	disabled = ext == strings.ToLower(m.DisabledExtension()) && m.DisabledExtension() != ""
	return enabled, disabled
}
