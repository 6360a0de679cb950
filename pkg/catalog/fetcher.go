package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/mode"
	"github.com/bootpe/pluginmart/pkg/plugin"
)

// Fetcher retrieves and normalizes the remote plugin catalog for a mode.
type Fetcher struct {
	client *http.Client
	log    *logrus.Logger
}

// NewFetcher creates a catalog fetcher. A nil client falls back to
// http.DefaultClient; a nil logger falls back to the logrus default.
func NewFetcher(client *http.Client, log *logrus.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logrus.New()
	}
	return &Fetcher{client: client, log: log}
}

// Fetch issues one GET to the mode's catalog URL and parses the response
// under the mode's schema. Categories keep their catalog order; entries are
// deduplicated within each category, first occurrence wins.
func (f *Fetcher) Fetch(ctx context.Context, m mode.Mode) ([]plugin.Category, error) {
	return f.fetchFrom(ctx, m.CatalogURL(), m)
}

func (f *Fetcher) fetchFrom(ctx context.Context, url string, m mode.Mode) ([]plugin.Category, error) {
	if url == "" {
		return nil, &ProtocolError{URL: url, Message: fmt.Sprintf("mode %s has no catalog", m)}
	}

	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var categories []plugin.Category
	switch m {
	case mode.HotPE:
		categories, err = parseSchemaB(url, body)
	default:
		categories, err = parseSchemaA(url, body)
	}
	if err != nil {
		return nil, err
	}

	total := 0
	for i := range categories {
		categories[i].List = plugin.Dedup(categories[i].List)
		total += len(categories[i].List)
	}

	f.log.Infof("Fetched %s catalog: %d categories, %d plugins", m, len(categories), total)
	return categories, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return body, nil
}

func parseSchemaA(url string, body []byte) ([]plugin.Category, error) {
	var resp schemaAResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProtocolError{URL: url, Message: "malformed catalog response", Err: err}
	}
	if resp.Code != http.StatusOK {
		return nil, &ProtocolError{URL: url, Message: fmt.Sprintf("catalog request failed: %s", resp.Message)}
	}
	return resp.Data, nil
}

func parseSchemaB(url string, body []byte) ([]plugin.Category, error) {
	var resp schemaBResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProtocolError{URL: url, Message: "malformed module list response", Err: err}
	}
	if resp.State != "success" {
		return nil, &ProtocolError{URL: url, Message: fmt.Sprintf("module list request failed: state %q", resp.State)}
	}

	categories := make([]plugin.Category, 0, len(resp.Data))
	for _, rc := range resp.Data {
		list := make([]plugin.Plugin, 0, len(rc.List))
		for _, item := range rc.List {
			list = append(list, item.toPlugin())
		}
		categories = append(categories, plugin.Category{
			Class: rc.Class,
			Icon:  rc.Icon,
			List:  list,
		})
	}
	return categories, nil
}
