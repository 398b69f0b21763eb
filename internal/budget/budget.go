// Package budget implements the Budget Allocator (C4): deterministic
// floor-division splitting of a fixed integer budget across N items, per
// spec.md §4.4. Pure arithmetic — intentionally stdlib-only, see DESIGN.md.
package budget

// Allocation is spec.md §3's Allocation entity.
type Allocation struct {
	TotalBudget int
	NItems      int
	PerItem     int
}

// Allocate implements the plain token-allocation variant:
// per_item = floor(total / max(1, n)). When n == 0 the degenerate share
// returned is the full total, and the caller must not iterate per-item
// (there is nothing to iterate over).
func Allocate(totalBudget, nItems int) Allocation {
	denom := nItems
	if denom < 1 {
		denom = 1
	}
	perItem := totalBudget / denom
	if perItem < 0 {
		perItem = 0
	}
	if nItems == 0 {
		perItem = totalBudget
	}
	return Allocation{TotalBudget: totalBudget, NItems: nItems, PerItem: perItem}
}

// CappedAllocation is the Reddit-style comment-allocation variant: the
// floor-divided per-item share is further capped at a provider-imposed
// ceiling. Both the uncapped and capped values are reported so handlers can
// parameterize the adapter call with the capped figure while still
// displaying the uncapped figure for user-facing accounting.
type CappedAllocation struct {
	TotalBudget      int
	NItems           int
	PerItemUncapped  int
	PerItemCapped    int
	Ceiling          int
}

// AllocateCapped implements spec.md §4.4's second variant.
func AllocateCapped(totalBudget, nItems, ceiling int) CappedAllocation {
	base := Allocate(totalBudget, nItems)
	capped := base.PerItem
	if ceiling > 0 && capped > ceiling {
		capped = ceiling
	}
	return CappedAllocation{
		TotalBudget:     totalBudget,
		NItems:          nItems,
		PerItemUncapped: base.PerItem,
		PerItemCapped:   capped,
		Ceiling:         ceiling,
	}
}
