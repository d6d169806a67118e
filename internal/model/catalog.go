package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CatalogEntry is one selectable sub-dimension
type CatalogEntry struct {
	Key  string `json:"key" yaml:"key"`
	Text string `json:"text" yaml:"text"`
}

// Catalog is an ordered, immutable key → label lookup table
type Catalog struct {
	entries []CatalogEntry
	index   map[string]int
}

// NewCatalog builds a catalog, later duplicates of a key are ignored
func NewCatalog(entries ...CatalogEntry) Catalog {
	c := Catalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, exists := c.index[e.Key]; exists {
			continue
		}
		c.index[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// Entries returns a copy of the entries in catalog order
func (c Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Keys returns the keys in catalog order
func (c Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

func (c Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Text returns the display label of key, or the key itself when unknown
func (c Catalog) Text(key string) string {
	if i, ok := c.index[key]; ok {
		return c.entries[i].Text
	}
	return key
}

// Position returns the catalog index of key, -1 when unknown
func (c Catalog) Position(key string) int {
	if i, ok := c.index[key]; ok {
		return i
	}
	return -1
}

func (c Catalog) Len() int { return len(c.entries) }

func (c Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.entries)
}

// ParseCatalog turns a JSON object of the form {"key": {"text": "Label"}}
// into a catalog, keeping the key order of the document.
func ParseCatalog(data []byte) (Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Catalog{}, fmt.Errorf("catalog must be a JSON object")
	}

	var entries []CatalogEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Catalog{}, fmt.Errorf("failed to read catalog key: %w", err)
		}
		key, _ := tok.(string)

		var value struct {
			Text string `json:"text"`
		}
		if err := dec.Decode(&value); err != nil {
			return Catalog{}, fmt.Errorf("failed to decode catalog entry %q: %w", key, err)
		}
		if value.Text == "" {
			value.Text = key
		}
		entries = append(entries, CatalogEntry{Key: key, Text: value.Text})
	}
	return NewCatalog(entries...), nil
}

// DefaultCollectionTypes returns the titles/volumes count kinds
func DefaultCollectionTypes() Catalog {
	return NewCatalog(
		CatalogEntry{Key: "titles", Text: "Titles"},
		CatalogEntry{Key: "volumes", Text: "Volumes"},
	)
}

// DefaultCirculationTypes returns the circulation event kinds
func DefaultCirculationTypes() Catalog {
	return NewCatalog(
		CatalogEntry{Key: "loans", Text: "Loans"},
		CatalogEntry{Key: "renewals", Text: "Renewals"},
		CatalogEntry{Key: "returns", Text: "Returns"},
		CatalogEntry{Key: "requests", Text: "Requests"},
	)
}

// Catalogs bundles the sub-dimension lookup tables
type Catalogs struct {
	CollectionTypes  Catalog `json:"collectionTypes"`
	CirculationTypes Catalog `json:"circulationTypes"`
}

// DefaultCatalogs returns the built-in lookup tables
func DefaultCatalogs() Catalogs {
	return Catalogs{
		CollectionTypes:  DefaultCollectionTypes(),
		CirculationTypes: DefaultCirculationTypes(),
	}
}

// For returns the sub-dimension catalog used by a report family
func (c Catalogs) For(family Family) Catalog {
	if family == FamilyCirculation {
		return c.CirculationTypes
	}
	return c.CollectionTypes
}
