package domain

import "time"

// CurrencyGroup is the subset of snapshot items sharing one currency,
// checked out against exactly one payment proof.
type CurrencyGroup struct {
	Currency    string             `json:"currency"`
	Items       []CartSnapshotItem `json:"items"`
	AmountMinor int64              `json:"amount_minor"`
}

type CartSnapshotItem struct {
	ItemID     string `json:"item_id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Currency   string `json:"currency"`
	Quantity   int64  `json:"quantity"`
	IsNFT      bool   `json:"is_nft"`
}

// CartSnapshot is the immutable view of the cart consumed by checkout.
// Concurrent cart edits after the snapshot is taken cannot affect an
// in-flight attempt.
type CartSnapshot struct {
	UserID     string             `json:"user_id"`
	Items      []CartSnapshotItem `json:"items"`
	Groups     []CurrencyGroup    `json:"groups"`
	TotalItems int64              `json:"total_items"`
	CapturedAt time.Time          `json:"captured_at"`
}

func (s *CartSnapshot) Empty() bool {
	return len(s.Items) == 0
}

// Snapshot deep-copies the cart's current items and partitions them into
// currency groups. Group order follows first appearance in the cart.
func (c *Cart) Snapshot() *CartSnapshot {
	snap := &CartSnapshot{
		UserID:     c.UserID,
		Items:      make([]CartSnapshotItem, 0, len(c.Items)),
		TotalItems: c.TotalItems,
		CapturedAt: time.Now().UTC(),
	}
	byCurrency := map[string]int{}
	for _, it := range c.Items {
		si := CartSnapshotItem{
			ItemID:     it.ID,
			ProductID:  it.ProductID,
			Name:       it.Name,
			PriceMinor: it.PriceMinor,
			Currency:   it.Currency,
			Quantity:   it.Quantity,
			IsNFT:      it.IsNFT,
		}
		snap.Items = append(snap.Items, si)

		idx, ok := byCurrency[it.Currency]
		if !ok {
			idx = len(snap.Groups)
			byCurrency[it.Currency] = idx
			snap.Groups = append(snap.Groups, CurrencyGroup{Currency: it.Currency})
		}
		snap.Groups[idx].Items = append(snap.Groups[idx].Items, si)
		snap.Groups[idx].AmountMinor += si.PriceMinor * si.Quantity
	}
	return snap
}
