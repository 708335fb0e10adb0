package domain

// ResolvedLine is a cart or order line joined with the current catalog entry.
// Product is nil when the product no longer exists.
type ResolvedLine struct {
	ProductID      string   `json:"productId"`
	Product        *Product `json:"product"`
	Quantity       int      `json:"quantity"`
	UnitPriceCents int64    `json:"unitPriceCents"`
	TotalCents     int64    `json:"totalCents"`
}

// ResolveCartLines pairs each line with its product from byID.
func ResolveCartLines(lines []CartLine, byID map[string]Product) []ResolvedLine {
	out := make([]ResolvedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, resolve(l.ProductID, l.Quantity, l.UnitPriceCents, byID))
	}
	return out
}

func ResolveOrderLines(lines []OrderLine, byID map[string]Product) []ResolvedLine {
	out := make([]ResolvedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, resolve(l.ProductID, l.Quantity, l.UnitPriceCents, byID))
	}
	return out
}

func resolve(productID string, qty int, unit int64, byID map[string]Product) ResolvedLine {
	rl := ResolvedLine{
		ProductID:      productID,
		Quantity:       qty,
		UnitPriceCents: unit,
		TotalCents:     unit * int64(qty),
	}
	if p, ok := byID[productID]; ok {
		rl.Product = &p
	}
	return rl
}

// ProductIDsOfCart lists the distinct product ids referenced by the lines.
func ProductIDsOfCart(lines []CartLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func ProductIDsOfOrder(lines []OrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
