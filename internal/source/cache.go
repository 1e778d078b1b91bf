package source

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

// Cache is an on-disk store of fetched structures keyed by MPID, so repeated
// workflow runs do not re-query the remote database.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache creates or opens the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	c := &Cache{db: db, path: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS structures (
		mpid TEXT PRIMARY KEY,
		fetched_at TIMESTAMP NOT NULL,
		doc TEXT NOT NULL
	);`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the cached structure for an MPID, or (nil, nil) on a miss.
func (c *Cache) Get(mpid string) (*structure.Structure, error) {
	var doc string
	err := c.db.QueryRow(`SELECT doc FROM structures WHERE mpid = ?`, mpid).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup for %s: %w", mpid, err)
	}
	var rec structureRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("cache entry for %s is corrupt: %w", mpid, err)
	}
	return rec.toStructure(), nil
}

// Put stores a structure under an MPID, replacing any previous entry.
func (c *Cache) Put(mpid string, s *structure.Structure) error {
	doc, err := json.Marshal(newStructureRecord(s))
	if err != nil {
		return fmt.Errorf("encode structure for %s: %w", mpid, err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO structures (mpid, fetched_at, doc) VALUES (?, ?, ?)`,
		mpid, time.Now().UTC(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("cache store for %s: %w", mpid, err)
	}
	return nil
}

// structureRecord is the cache serialization of a structure.
type structureRecord struct {
	Lattice    [3][3]float64 `json:"lattice"`
	Sites      []siteRecord  `json:"sites"`
	HasMagmoms bool          `json:"has_magmoms"`
}

type siteRecord struct {
	Species string     `json:"species"`
	Frac    [3]float64 `json:"frac"`
	Magmom  float64    `json:"magmom"`
}

func newStructureRecord(s *structure.Structure) structureRecord {
	rec := structureRecord{Lattice: s.Lattice.Rows, HasMagmoms: s.HasMagmoms}
	for _, site := range s.Sites {
		rec.Sites = append(rec.Sites, siteRecord{Species: site.Species, Frac: site.Frac, Magmom: site.Magmom})
	}
	return rec
}

func (r structureRecord) toStructure() *structure.Structure {
	sites := make([]structure.Site, len(r.Sites))
	for i, sr := range r.Sites {
		sites[i] = structure.Site{Species: sr.Species, Frac: sr.Frac, Magmom: sr.Magmom}
	}
	s := structure.New(structure.NewLattice(r.Lattice), sites)
	s.HasMagmoms = r.HasMagmoms
	return s
}
