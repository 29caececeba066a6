/**
 * @description
 * This file defines the data package catalog for the hotspot billing service.
 * A Package is an immutable offer (display label plus price); the Catalog is the
 * startup-time mapping used both to price outgoing STK pushes and to resolve an
 * incoming payment confirmation back to a package by its paid amount.
 *
 * @notes
 * - Prices are whole Kenyan shillings stored as int64. The confirmation path only
 *   carries an amount, so prices must be unique within a catalog; NewCatalog
 *   enforces that at construction time.
 */

package domain

import (
	"fmt"
	"strings"
)

// Package is a purchasable data bundle.
type Package struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Price int64  `json:"price"` // whole KES
}

// ProfileName converts the package label into the hotspot profile name used on
// the router, e.g. "2 HOURS UNLIMITED" -> "2_HOURS_UNLIMITED".
func (p Package) ProfileName() string {
	return strings.ReplaceAll(p.Label, " ", "_")
}

// Catalog is the immutable set of packages offered by the portal.
type Catalog struct {
	ordered []Package
	byID    map[string]Package
	byPrice map[int64]Package
}

// NewCatalog builds a catalog from the given packages. It fails if any package
// has an empty id or label, a non-positive price, or shares an id or price with
// another package. Price uniqueness is what keeps amount-based resolution on the
// confirmation path well-defined.
func NewCatalog(packages []Package) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]Package, 0, len(packages)),
		byID:    make(map[string]Package, len(packages)),
		byPrice: make(map[int64]Package, len(packages)),
	}
	for _, pkg := range packages {
		if pkg.ID == "" || pkg.Label == "" {
			return nil, fmt.Errorf("package %q must have an id and a label", pkg.ID)
		}
		if pkg.Price <= 0 {
			return nil, fmt.Errorf("package %q must have a positive price, got %d", pkg.ID, pkg.Price)
		}
		if _, exists := c.byID[pkg.ID]; exists {
			return nil, fmt.Errorf("duplicate package id %q", pkg.ID)
		}
		if other, exists := c.byPrice[pkg.Price]; exists {
			return nil, fmt.Errorf("packages %q and %q share price %d", other.ID, pkg.ID, pkg.Price)
		}
		c.ordered = append(c.ordered, pkg)
		c.byID[pkg.ID] = pkg
		c.byPrice[pkg.Price] = pkg
	}
	return c, nil
}

// DefaultCatalog returns the standard package lineup.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog([]Package{
		{ID: "data_1", Label: "2 HOURS UNLIMITED", Price: 5},
		{ID: "data_2", Label: "12 HOURS UNLIMITED", Price: 15},
		{ID: "data_3", Label: "24 HOURS UNLIMITED", Price: 20},
		{ID: "data_4", Label: "4 DAYS UNLIMITED", Price: 50},
		{ID: "data_5", Label: "8 DAYS UNLIMITED", Price: 100},
		{ID: "data_6", Label: "1 MONTH UNLIMITED", Price: 300},
	})
	if err != nil {
		panic(err) // static data, unreachable
	}
	return catalog
}

// ByID looks up a package by its identifier.
func (c *Catalog) ByID(id string) (Package, bool) {
	pkg, ok := c.byID[id]
	return pkg, ok
}

// ByPrice looks up a package by an exact amount match. Amounts with a fractional
// part cannot match any configured price.
func (c *Catalog) ByPrice(amount float64) (Package, bool) {
	whole := int64(amount)
	if float64(whole) != amount {
		return Package{}, false
	}
	pkg, ok := c.byPrice[whole]
	return pkg, ok
}

// Packages returns the catalog contents in configuration order.
func (c *Catalog) Packages() []Package {
	out := make([]Package, len(c.ordered))
	copy(out, c.ordered)
	return out
}
