// Package matproj is a minimal Materials Project REST client: keyed structure
// lookup by MPID, decoding the pymatgen structure document into the internal
// structure model.
package matproj

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

// DefaultBaseURL is the legacy Materials Project REST endpoint.
const DefaultBaseURL = "https://materialsproject.org/rest/v2"

// Client queries the Materials Project materials endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests point this at a local server).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient builds a client. The API key is an explicit dependency; callers
// load it from configuration or the environment.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// materialsResponse is the REST envelope around a structure lookup.
type materialsResponse struct {
	Valid    bool   `json:"valid"`
	Error    string `json:"error"`
	Response []struct {
		MaterialID string       `json:"material_id"`
		Structure  structureDoc `json:"structure"`
	} `json:"response"`
}

// structureDoc mirrors the pymatgen Structure JSON document.
type structureDoc struct {
	Lattice struct {
		Matrix [3][3]float64 `json:"matrix"`
	} `json:"lattice"`
	Sites []struct {
		Species []struct {
			Element string  `json:"element"`
			Occu    float64 `json:"occu"`
		} `json:"species"`
		Abc        [3]float64 `json:"abc"`
		Properties struct {
			Magmom *float64 `json:"magmom"`
		} `json:"properties"`
	} `json:"sites"`
}

// Structure fetches the final relaxed structure for an MPID.
func (c *Client) Structure(ctx context.Context, mpid string) (*structure.Structure, error) {
	endpoint := fmt.Sprintf("%s/materials/%s/vasp/structure", c.baseURL, url.PathEscape(mpid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("materials project request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("materials project returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope materialsResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !envelope.Valid {
		return nil, fmt.Errorf("%s is not a valid mp-id: %s", mpid, envelope.Error)
	}
	if len(envelope.Response) == 0 {
		return nil, fmt.Errorf("no structure returned for %s", mpid)
	}
	return decodeStructure(envelope.Response[0].Structure)
}

func decodeStructure(doc structureDoc) (*structure.Structure, error) {
	if len(doc.Sites) == 0 {
		return nil, fmt.Errorf("structure document has no sites")
	}
	sites := make([]structure.Site, 0, len(doc.Sites))
	hasMagmoms := false
	for i, sd := range doc.Sites {
		if len(sd.Species) == 0 {
			return nil, fmt.Errorf("site %d has no species", i)
		}
		site := structure.Site{
			Species: sd.Species[0].Element,
			Frac:    sd.Abc,
		}
		if sd.Properties.Magmom != nil {
			site.Magmom = *sd.Properties.Magmom
			hasMagmoms = true
		}
		sites = append(sites, site)
	}
	s := structure.New(structure.NewLattice(doc.Lattice.Matrix), sites)
	s.HasMagmoms = hasMagmoms
	return s, nil
}
