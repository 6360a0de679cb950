package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bootpe/pluginmart/pkg/format"
	"github.com/bootpe/pluginmart/pkg/plugin"
)

// schemaAResponse is the CloudPE/Edgeless catalog envelope. Entries already
// carry canonical plugin fields.
type schemaAResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    []plugin.Category `json:"data"`
}

// schemaBResponse is the HotPE catalog envelope. Entries are raw directory
// listings decoded into canonical plugins by toPlugin.
type schemaBResponse struct {
	State string        `json:"state"`
	Data  []rawCategory `json:"data"`
}

type rawCategory struct {
	Class string    `json:"class"`
	Icon  *string   `json:"icon"`
	List  []rawItem `json:"list"`
}

type rawItem struct {
	Name     string        `json:"name"`
	Size     sizeString    `json:"size"`
	Modified modifiedString `json:"modified"`
	Link     string        `json:"link"`
}

// sizeString accepts a number (rendered via format.FileSize) or a string
// (passed through unchanged).
type sizeString string

func (s *sizeString) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case string:
		*s = sizeString(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			*s = sizeString(format.FileSize(n))
		} else if f, err := val.Float64(); err == nil {
			*s = sizeString(format.FileSize(int64(f)))
		} else {
			*s = "unknown"
		}
	default:
		*s = "unknown"
	}
	return nil
}

// modifiedString accepts a number (epoch seconds, rendered as
// "YYYY-MM-DD HH:MM:SS" UTC) or a string (passed through unchanged).
type modifiedString string

func (m *modifiedString) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case string:
		*m = modifiedString(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			*m = modifiedString(format.Timestamp(n))
		} else {
			*m = modifiedString(val.String())
		}
	default:
		return fmt.Errorf("expected string or number for modified field, got %s", string(data))
	}
	return nil
}

// toPlugin decodes a raw HotPE listing entry into a canonical plugin. The
// entry name is split after stripping the ".HPM" suffix: four or more
// tokens map to (name, author, version, description); exactly three leave
// the description empty; anything shorter keeps the full string as the
// name.
func (r rawItem) toPlugin() plugin.Plugin {
	parts := strings.Split(strings.TrimSuffix(r.Name, ".HPM"), "_")

	p := plugin.Plugin{
		Size: string(r.Size),
		File: r.Name,
		Link: r.Link,
	}

	switch {
	case len(parts) >= 4:
		p.Name = parts[0]
		p.Author = parts[1]
		p.Version = parts[2]
		p.Describe = strings.Join(parts[3:], "_")
	case len(parts) == 3:
		p.Name = parts[0]
		p.Author = parts[1]
		p.Version = parts[2]
	default:
		p.Name = r.Name
	}

	return p
}
