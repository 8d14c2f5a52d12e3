// Package selector implements the default-variant priority cascade: the
// deterministic choice of which variant a product pre-selects when the buyer
// has not made an explicit choice.
package selector

import "sort"

// Candidate is the variant-shaped input the cascade evaluates. The slice
// order passed to Pick is the display order; all tie-breaks resolve to the
// earliest element, which keeps the cascade a pure function of its input.
type Candidate interface {
	InStock() bool
	Price() int32
	SalesScore() float64
	HasSalesData() bool
	AdminDefault() bool
	Canonical() bool
	Size() (value float64, ok bool)
	Colored() bool
}

// Pick returns the variant to pre-select for the given scope, or nil when the
// scope is empty. The cascade, first success wins:
//
//  1. an in-stock admin override (is_default)
//  2. if nothing is in stock: the canonical variant, else the first, so
//     the product page still has something to show
//  3. the best-scoring in-stock variant with historical sales data
//  4. the entry-level heuristic: smallest in-stock size for size-only scopes,
//     otherwise cheapest at <= 2 price points and second-cheapest at >= 3
//  5. the in-stock canonical variant, else the first in-stock variant
func Pick(scope []Candidate) Candidate {
	if len(scope) == 0 {
		return nil
	}

	// 1. Admin override.
	for _, c := range scope {
		if c.InStock() && c.AdminDefault() {
			return c
		}
	}

	inStock := make([]Candidate, 0, len(scope))
	for _, c := range scope {
		if c.InStock() {
			inStock = append(inStock, c)
		}
	}

	// 2. All out of stock: fall back to the canonical variant so the product
	// page still has something to show.
	if len(inStock) == 0 {
		for _, c := range scope {
			if c.Canonical() {
				return c
			}
		}
		return scope[0]
	}

	// 3. Bestseller by weighted performance score.
	if c := bestseller(inStock); c != nil {
		return c
	}

	// 4. Entry-level heuristic.
	if c := entryLevel(scope, inStock); c != nil {
		return c
	}

	// 5. Canonical-or-first fallback.
	for _, c := range inStock {
		if c.Canonical() {
			return c
		}
	}
	return inStock[0]
}

// bestseller returns the highest-scoring in-stock variant, or nil when no
// variant carries performance data. Ties keep the earlier display position.
func bestseller(inStock []Candidate) Candidate {
	var best Candidate
	for _, c := range inStock {
		if !c.HasSalesData() {
			continue
		}
		if best == nil || c.SalesScore() > best.SalesScore() {
			best = c
		}
	}
	return best
}

// entryLevel picks the variant that anchors the product's displayed price.
// For size-only scopes the smallest in-stock size wins. Otherwise the scope
// is ranked by price: with two or fewer distinct price points the cheapest
// wins; with three or more the second-cheapest price point wins. Wide ranges
// deliberately skip the absolute cheapest.
func entryLevel(scope, inStock []Candidate) Candidate {
	if sizeOnly(scope) {
		var smallest Candidate
		var smallestSize float64
		for _, c := range inStock {
			size, ok := c.Size()
			if !ok {
				continue
			}
			if smallest == nil || size < smallestSize {
				smallest = c
				smallestSize = size
			}
		}
		if smallest != nil {
			return smallest
		}
	}

	prices := distinctPrices(inStock)
	if len(prices) == 0 {
		return nil
	}
	target := prices[0]
	if len(prices) >= 3 {
		target = prices[1]
	}
	for _, c := range inStock {
		if c.Price() == target {
			return c
		}
	}
	return nil
}

// sizeOnly reports whether every variant in the scope differs solely by size:
// all carry a size value and none carries a color dimension.
func sizeOnly(scope []Candidate) bool {
	for _, c := range scope {
		if _, ok := c.Size(); !ok {
			return false
		}
		if c.Colored() {
			return false
		}
	}
	return len(scope) > 0
}

// distinctPrices returns the distinct price points in ascending order.
func distinctPrices(cands []Candidate) []int32 {
	seen := make(map[int32]struct{}, len(cands))
	prices := make([]int32, 0, len(cands))
	for _, c := range cands {
		p := c.Price()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	return prices
}
