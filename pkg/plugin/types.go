package plugin

import "fmt"

// Plugin is one add-on package, either a remote catalog entry or a locally
// installed file. File is empty for pure-remote entries; Link is empty for
// pure-local entries. Size is a display string, not a byte count.
type Plugin struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Version  string `json:"version"`
	Author   string `json:"author"`
	Describe string `json:"describe,omitempty"`
	File     string `json:"file,omitempty"`
	Link     string `json:"link,omitempty"`
}

// ID returns the identity key correlating a catalog entry with a locally
// installed file.
func (p Plugin) ID() string {
	return fmt.Sprintf("%s_%s", p.Name, p.Author)
}

// DedupKey returns the composite key used to collapse duplicate entries
// within a catalog category or a local snapshot.
func (p Plugin) DedupKey() string {
	return fmt.Sprintf("%s_%s_%s_%s", p.Name, p.Version, p.Author, p.Size)
}

// Category is one catalog section: a class label, an optional icon URL and
// an ordered plugin list. List order is catalog order.
type Category struct {
	Class string   `json:"class"`
	Icon  *string  `json:"icon,omitempty"`
	List  []Plugin `json:"list"`
}

// Dedup returns the plugins with duplicate dedup keys removed, first
// occurrence wins, order preserved.
func Dedup(list []Plugin) []Plugin {
	seen := make(map[string]struct{}, len(list))
	out := make([]Plugin, 0, len(list))
	for _, p := range list {
		key := p.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
