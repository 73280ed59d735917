package estimation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// DefaultMultiplier applies to container types missing from the catalog.
	DefaultMultiplier = 2.0
	// DefaultBaseline applies to item names that match no rate entry.
	DefaultBaseline = 10
)

var ErrInvalidCatalog = errors.New("invalid estimation catalog")

// ContainerType is a carrying unit and its capacity relative to a unit container.
type ContainerType struct {
	Name       string  `json:"name" mapstructure:"name"`
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
}

// ItemBaseRate is the baseline count of an item that fits a unit container.
// The table is calibrated for a Medium Box.
type ItemBaseRate struct {
	Item     string `json:"item" mapstructure:"item"`
	Quantity int    `json:"quantity" mapstructure:"quantity"`
}

// Catalog is the read-only container and rate lookup. Build it once with
// NewCatalog and share it; nothing mutates it afterwards.
type Catalog struct {
	containers    []ContainerType
	multipliers   map[string]float64
	exact         map[string]int
	bySpecificity []ItemBaseRate
}

func NewCatalog(containers []ContainerType, rates []ItemBaseRate) (*Catalog, error) {
	c := &Catalog{
		containers:  make([]ContainerType, 0, len(containers)),
		multipliers: make(map[string]float64, len(containers)),
		exact:       make(map[string]int, len(rates)),
	}

	for _, ct := range containers {
		key := normalize(ct.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: container type with empty name", ErrInvalidCatalog)
		}
		if math.IsNaN(ct.Multiplier) || math.IsInf(ct.Multiplier, 0) {
			return nil, fmt.Errorf("%w: container %q has non-finite multiplier %v", ErrInvalidCatalog, ct.Name, ct.Multiplier)
		}
		if ct.Multiplier <= 0 {
			return nil, fmt.Errorf("%w: container %q has non-positive multiplier %v", ErrInvalidCatalog, ct.Name, ct.Multiplier)
		}
		if _, dup := c.multipliers[key]; dup {
			return nil, fmt.Errorf("%w: duplicate container %q", ErrInvalidCatalog, ct.Name)
		}
		c.multipliers[key] = ct.Multiplier
		c.containers = append(c.containers, ct)
	}

	for _, r := range rates {
		key := normalize(r.Item)
		if key == "" {
			return nil, fmt.Errorf("%w: rate with empty item name", ErrInvalidCatalog)
		}
		if r.Quantity < 1 {
			return nil, fmt.Errorf("%w: rate for %q must be at least 1, got %d", ErrInvalidCatalog, r.Item, r.Quantity)
		}
		if _, dup := c.exact[key]; dup {
			return nil, fmt.Errorf("%w: duplicate rate for %q", ErrInvalidCatalog, r.Item)
		}
		c.exact[key] = r.Quantity
		c.bySpecificity = append(c.bySpecificity, ItemBaseRate{Item: key, Quantity: r.Quantity})
	}

	// Longer keys are more specific, so they win the substring pass.
	// Ties fall back to alphabetical order to keep lookups deterministic.
	sort.SliceStable(c.bySpecificity, func(i, j int) bool {
		a, b := c.bySpecificity[i].Item, c.bySpecificity[j].Item
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	return c, nil
}

// DefaultCatalog builds the catalog from the built-in tables.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultContainerTypes(), DefaultItemRates())
	if err != nil {
		panic(err)
	}
	return c
}

// ContainerTypes returns the configured container types in declaration order.
func (c *Catalog) ContainerTypes() []ContainerType {
	out := make([]ContainerType, len(c.containers))
	copy(out, c.containers)
	return out
}

// HasContainer reports whether containerType is a configured container.
func (c *Catalog) HasContainer(containerType string) bool {
	_, ok := c.multipliers[normalize(containerType)]
	return ok
}

// Multiplier returns the size multiplier for containerType, or DefaultMultiplier.
func (c *Catalog) Multiplier(containerType string) float64 {
	if m, ok := c.multipliers[normalize(containerType)]; ok {
		return m
	}
	return DefaultMultiplier
}

// Baseline resolves an item name to its per-container baseline in two tiers:
// case-insensitive exact match, then normalized substring match in either
// direction (stored key inside the name, or the name's text before any
// parenthesis inside the stored key). Unmatched names get DefaultBaseline.
func (c *Catalog) Baseline(itemName string) int {
	name := normalize(itemName)
	if name == "" {
		return DefaultBaseline
	}
	if q, ok := c.exact[name]; ok {
		return q
	}

	prefix := namePrefix(name)
	for _, r := range c.bySpecificity {
		if strings.Contains(name, r.Item) {
			return r.Quantity
		}
		if prefix != "" && strings.Contains(r.Item, prefix) {
			return r.Quantity
		}
	}
	return DefaultBaseline
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// namePrefix returns the normalized text before the first "(".
func namePrefix(normalized string) string {
	before, _, _ := strings.Cut(normalized, "(")
	return strings.TrimSpace(before)
}
