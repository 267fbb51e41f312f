package domain

import "strings"

// GroupBySeller partitions cart items into one group per seller. Groups appear
// in first-seen seller order and items keep their cart order within a group,
// which fixes the iteration order used when persisting seller orders. Every
// item lands in exactly one group; items with a blank seller id are skipped.
func GroupBySeller(items []CartItem) []SellerGroup {
	groups := make([]SellerGroup, 0, 4)
	index := make(map[string]int, 4)

	for _, item := range items {
		sellerID := strings.TrimSpace(item.SellerID)
		if sellerID == "" {
			continue
		}
		pos, ok := index[sellerID]
		if !ok {
			pos = len(groups)
			index[sellerID] = pos
			groups = append(groups, SellerGroup{SellerID: sellerID})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}

	return groups
}

// CartSubtotal sums quantity times unit price over all items, in paise.
func CartSubtotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			continue
		}
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// Subtotal sums the group's line totals, in paise.
func (g SellerGroup) Subtotal() int64 {
	return CartSubtotal(g.Items)
}
