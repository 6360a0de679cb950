package plugin

import (
	"strings"

	"github.com/bootpe/pluginmart/pkg/mode"
)

// Field delimiter shared by all three filename grammars.
const delimiter = "_"

// pathUnsafe lists the characters replaced by an underscore when a
// description is embedded into a filename.
var pathUnsafe = []string{" ", "/", `\`, ":", "*", "?", `"`, "<", ">", "|"}

// Decode parses a plugin file name under the mode's grammar. The second
// return value is false when the name does not match the grammar; that is
// not an error, the file is simply not a recognized plugin file.
//
// Grammars (delimiter "_", suffix stripped first):
//
//	CloudPE:  name_version_author_description  (>= 4 fields)
//	HotPE:    name_author_version[_description] (>= 3 fields)
//	Edgeless: name_version_author              (>= 3 fields, no description)
//
// Size and Link are left empty; callers fill them from file metadata or the
// catalog entry.
func Decode(filename string, m mode.Mode) (Plugin, bool) {
	base, ok := stripSuffix(filename, m)
	if !ok {
		return Plugin{}, false
	}

	parts := strings.Split(base, delimiter)

	switch m {
	case mode.CloudPE:
		if len(parts) < 4 {
			return Plugin{}, false
		}
		return Plugin{
			Name:     parts[0],
			Version:  parts[1],
			Author:   parts[2],
			Describe: strings.Join(parts[3:], delimiter),
			File:     filename,
		}, true
	case mode.HotPE:
		if len(parts) < 3 {
			return Plugin{}, false
		}
		describe := ""
		if len(parts) > 3 {
			describe = strings.Join(parts[3:], delimiter)
		}
		return Plugin{
			Name:     parts[0],
			Author:   parts[1],
			Version:  parts[2],
			Describe: describe,
			File:     filename,
		}, true
	case mode.Edgeless:
		if len(parts) < 3 {
			return Plugin{}, false
		}
		return Plugin{
			Name:    parts[0],
			Version: parts[1],
			Author:  strings.Join(parts[2:], delimiter),
			File:    filename,
		}, true
	default:
		return Plugin{}, false
	}
}

// Encode builds the canonical enabled file name for a plugin under the
// mode's grammar, including the enabled extension. Path-unsafe characters
// in the description are replaced with underscores.
//
// HotPE substitutes the plugin name for an empty description so the name
// never ends with a dangling delimiter.
func Encode(p Plugin, m mode.Mode) string {
	describe := SanitizeDescribe(p.Describe)

	var base string
	switch m {
	case mode.CloudPE:
		base = strings.Join([]string{p.Name, p.Version, p.Author, describe}, delimiter)
	case mode.HotPE:
		if describe == "" {
			describe = p.Name
		}
		base = strings.Join([]string{p.Name, p.Author, p.Version, describe}, delimiter)
	case mode.Edgeless:
		base = strings.Join([]string{p.Name, p.Version, p.Author}, delimiter)
	default:
		return ""
	}

	return base + "." + m.EnabledExtension()
}

// SanitizeDescribe replaces path-unsafe characters in a description with
// underscores.
func SanitizeDescribe(describe string) string {
	for _, ch := range pathUnsafe {
		describe = strings.ReplaceAll(describe, ch, "_")
	}
	return describe
}

// stripSuffix removes the mode's enabled or disabled suffix from a file
// name, case-insensitively. It reports false when neither suffix matches.
func stripSuffix(filename string, m mode.Mode) (string, bool) {
	for _, ext := range []string{m.DisabledExtension(), m.EnabledExtension()} {
		if ext == "" {
			continue
		}
		suffix := "." + ext
		if len(filename) > len(suffix) && strings.EqualFold(filename[len(filename)-len(suffix):], suffix) {
			return filename[:len(filename)-len(suffix)], true
		}
	}
	return "", false
}
