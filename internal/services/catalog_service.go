package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/walkin/intake/internal/models"
	"github.com/walkin/intake/internal/storage"
)

var ErrCatalogUnavailable = errors.New("category lookup unavailable")

// CategoryLookup returns categories with their item types.
type CategoryLookup interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CatalogResult is what staff see when picking item types.
type CatalogResult struct {
	Categories []models.Category `json:"categories"`
	// Degraded is set when the lookup failed and an older or built-in
	// list is being served.
	Degraded   bool      `json:"degraded"`
	Source     string    `json:"source"`
	SnapshotAt time.Time `json:"snapshot_at,omitempty"`
}

const (
	SourceLookup   = "lookup"
	SourceSnapshot = "snapshot"
	SourceFallback = "fallback"
)

// CatalogService loads the catalog once and keeps serving that copy. When
// the lookup fails it falls back to the last snapshot it saved, then to the
// built-in list, so intake never stops.
type CatalogService struct {
	lookup   CategoryLookup
	snapshot *storage.JSONStore

	once   sync.Once
	result CatalogResult
}

// NewCatalogService wires a lookup and an optional snapshot store. Either
// may be nil.
func NewCatalogService(lookup CategoryLookup, snapshot *storage.JSONStore) *CatalogService {
	return &CatalogService{lookup: lookup, snapshot: snapshot}
}

func (s *CatalogService) Categories(ctx context.Context) CatalogResult {
	s.once.Do(func() {
		s.result = s.load(ctx)
	})
	return s.result
}

// ItemType finds an item type by id across all categories.
func (s *CatalogService) ItemType(ctx context.Context, itemTypeID string) (models.ItemType, bool) {
	for _, c := range s.Categories(ctx).Categories {
		for _, t := range c.ItemTypes {
			if t.ID == itemTypeID {
				if t.Category == "" {
					t.Category = c.Name
				}
				return t, true
			}
		}
	}
	return models.ItemType{}, false
}

func (s *CatalogService) load(ctx context.Context) CatalogResult {
	if s.lookup != nil {
		cats, err := s.lookup.ListCategories(ctx)
		if err == nil && len(cats) > 0 {
			cats = withCategoryNames(cats)
			if s.snapshot != nil {
				if err := s.snapshot.Save(cats); err != nil {
					log.Printf("[catalog] snapshot save failed: %v", err)
				}
			}
			log.Printf("[catalog] loaded %d categories from lookup", len(cats))
			return CatalogResult{Categories: cats, Source: SourceLookup}
		}
		if err == nil {
			err = errors.New("lookup returned no categories")
		}
		log.Printf("[catalog] lookup failed, degrading: %v", err)
	}

	if s.snapshot != nil && s.snapshot.Exists() {
		var cats []models.Category
		if err := s.snapshot.Load(&cats); err != nil {
			log.Printf("[catalog] snapshot load failed: %v", err)
		} else if len(cats) > 0 {
			log.Printf("[catalog] serving %d categories from snapshot", len(cats))
			return CatalogResult{
				Categories: cats,
				Degraded:   true,
				Source:     SourceSnapshot,
				SnapshotAt: s.snapshot.ModTime(),
			}
		}
	}

	log.Printf("[catalog] serving built-in fallback categories")
	return CatalogResult{Categories: models.FallbackCategories(), Degraded: true, Source: SourceFallback}
}

func withCategoryNames(cats []models.Category) []models.Category {
	out := make([]models.Category, len(cats))
	for i, c := range cats {
		c.ItemTypes = append([]models.ItemType(nil), c.ItemTypes...)
		for j := range c.ItemTypes {
			if c.ItemTypes[j].Category == "" {
				c.ItemTypes[j].Category = c.Name
			}
		}
		out[i] = c
	}
	return out
}

// HTTPCategoryClient reads categories from a remote catalog endpoint that
// answers with {"success": true, "data": [...]}.
type HTTPCategoryClient struct {
	Endpoint   string
	HTTPClient *http.Client
}

func NewHTTPCategoryClient(endpoint string) *HTTPCategoryClient {
	return &HTTPCategoryClient{
		Endpoint: strings.TrimSpace(endpoint),
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

type categoriesEnvelope struct {
	Success bool              `json:"success"`
	Data    []models.Category `json:"data"`
	Error   string            `json:"error"`
}

func (c *HTTPCategoryClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	if c == nil || c.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing CATALOG_URL", ErrCatalogUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: categories http %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var out categoriesEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrCatalogUnavailable, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrCatalogUnavailable, out.Error)
	}
	return out.Data, nil
}
