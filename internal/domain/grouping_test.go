package domain

import (
	"testing"
)

func TestGroupBySellerPreservesFirstSeenOrder(t *testing.T) {
	items := []CartItem{
		{ProductID: "p1", SellerID: "s2", UnitPrice: 5000, Quantity: 1},
		{ProductID: "p2", SellerID: "s1", UnitPrice: 10000, Quantity: 2},
		{ProductID: "p3", SellerID: "s2", UnitPrice: 2500, Quantity: 4},
		{ProductID: "p4", SellerID: "s3", UnitPrice: 1500, Quantity: 1},
	}

	groups := GroupBySeller(items)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	wantOrder := []string{"s2", "s1", "s3"}
	for i, want := range wantOrder {
		if groups[i].SellerID != want {
			t.Fatalf("group %d: expected seller %s, got %s", i, want, groups[i].SellerID)
		}
	}

	if len(groups[0].Items) != 2 {
		t.Fatalf("expected 2 items for s2, got %d", len(groups[0].Items))
	}
	if groups[0].Items[0].ProductID != "p1" || groups[0].Items[1].ProductID != "p3" {
		t.Fatalf("s2 items out of cart order: %#v", groups[0].Items)
	}
}

func TestGroupBySellerNoItemLostOrDuplicated(t *testing.T) {
	items := []CartItem{
		{ProductID: "p1", SellerID: "s1", UnitPrice: 100, Quantity: 1},
		{ProductID: "p2", SellerID: "s2", UnitPrice: 200, Quantity: 1},
		{ProductID: "p3", SellerID: "s1", UnitPrice: 300, Quantity: 1},
		{ProductID: "p4", SellerID: "s3", UnitPrice: 400, Quantity: 1},
		{ProductID: "p5", SellerID: "s3", UnitPrice: 500, Quantity: 1},
	}

	groups := GroupBySeller(items)

	seen := make(map[string]int)
	total := 0
	for _, group := range groups {
		for _, item := range group.Items {
			if item.SellerID != group.SellerID {
				t.Fatalf("item %s placed in group %s", item.ProductID, group.SellerID)
			}
			seen[item.ProductID]++
			total++
		}
	}

	if total != len(items) {
		t.Fatalf("expected %d items across groups, got %d", len(items), total)
	}
	for _, item := range items {
		if seen[item.ProductID] != 1 {
			t.Fatalf("item %s appeared %d times", item.ProductID, seen[item.ProductID])
		}
	}
}

func TestGroupBySellerIdempotent(t *testing.T) {
	items := []CartItem{
		{ProductID: "p1", SellerID: "s9", UnitPrice: 700, Quantity: 3},
		{ProductID: "p2", SellerID: "s4", UnitPrice: 900, Quantity: 1},
		{ProductID: "p3", SellerID: "s9", UnitPrice: 100, Quantity: 2},
	}

	first := GroupBySeller(items)
	second := GroupBySeller(items)

	if len(first) != len(second) {
		t.Fatalf("group counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SellerID != second[i].SellerID {
			t.Fatalf("group %d seller differs: %s vs %s", i, first[i].SellerID, second[i].SellerID)
		}
		if len(first[i].Items) != len(second[i].Items) {
			t.Fatalf("group %d item counts differ", i)
		}
		for j := range first[i].Items {
			if first[i].Items[j].ProductID != second[i].Items[j].ProductID {
				t.Fatalf("group %d item %d differs", i, j)
			}
		}
	}
}

func TestGroupBySellerSkipsBlankSellerIDs(t *testing.T) {
	items := []CartItem{
		{ProductID: "p1", SellerID: " ", UnitPrice: 100, Quantity: 1},
		{ProductID: "p2", SellerID: "s1", UnitPrice: 200, Quantity: 1},
	}
	groups := GroupBySeller(items)
	if len(groups) != 1 || groups[0].SellerID != "s1" {
		t.Fatalf("unexpected groups: %#v", groups)
	}
}

func TestCartSubtotalMatchesGroupSubtotals(t *testing.T) {
	items := []CartItem{
		{ProductID: "p1", SellerID: "s1", UnitPrice: 10000, Quantity: 2},
		{ProductID: "p2", SellerID: "s2", UnitPrice: 5000, Quantity: 1},
		{ProductID: "p3", SellerID: "s1", UnitPrice: 2550, Quantity: 3},
	}

	var grouped int64
	for _, group := range GroupBySeller(items) {
		grouped += group.Subtotal()
	}

	if got := CartSubtotal(items); got != grouped {
		t.Fatalf("cart subtotal %d does not equal sum of group subtotals %d", got, grouped)
	}
	if got := CartSubtotal(items); got != 32650 {
		t.Fatalf("expected subtotal 32650, got %d", got)
	}
}
