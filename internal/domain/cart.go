package domain

import (
	"time"

	"github.com/google/uuid"
)

// AddOutcome tells the caller what AddItem actually did. AlreadyInCart is a
// valid outcome for NFT products, not an error: re-adding an owned NFT line
// must leave the cart untouched.
type AddOutcome int

const (
	ItemAdded AddOutcome = iota
	QuantityMerged
	AlreadyInCart
)

type CartItem struct {
	ID         string    `bson:"id" json:"id"`
	ProductID  string    `bson:"product_id" json:"product_id"`
	Name       string    `bson:"name" json:"name"`
	PriceMinor int64     `bson:"price_minor" json:"price_minor"`
	Currency   string    `bson:"currency" json:"currency"`
	Quantity   int64     `bson:"quantity" json:"quantity"`
	IsNFT      bool      `bson:"is_nft" json:"is_nft"`
	AddedAt    time.Time `bson:"added_at" json:"added_at"`
}

// PaymentRecord is one entry of the cart's append-only payment history,
// one per checkout attempt per currency group.
type PaymentRecord struct {
	Provider    string    `bson:"provider" json:"provider"`
	Currency    string    `bson:"currency" json:"currency"`
	AmountMinor int64     `bson:"amount_minor" json:"amount_minor"`
	ChargeRef   string    `bson:"charge_ref" json:"charge_ref"`
	Status      string    `bson:"status" json:"status"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Cart is the per-user aggregate. TotalItems and Totals are derived fields:
// they are recomputed inside every mutating method and are never written
// independently of the items that produce them.
type Cart struct {
	ID         string           `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     string           `bson:"user_id" json:"user_id"`
	Items      []CartItem       `bson:"items" json:"items"`
	Payments   []PaymentRecord  `bson:"payments" json:"payments"`
	TotalItems int64            `bson:"total_items" json:"total_items"`
	Totals     map[string]int64 `bson:"totals" json:"totals"`
	CreatedAt  time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `bson:"updated_at" json:"updated_at"`
}

func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		Payments:  []PaymentRecord{},
		Totals:    map[string]int64{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem merges quantity into an existing non-NFT line for the same product,
// or appends a new line capturing the product's current price and currency.
// Later price changes on the product do not affect lines already in the cart.
func (c *Cart) AddItem(p Product, qty int64) AddOutcome {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID != p.ID {
			continue
		}
		if c.Items[i].IsNFT {
			return AlreadyInCart
		}
		c.Items[i].Quantity += qty
		c.recompute()
		return QuantityMerged
	}
	if p.IsNFT {
		qty = 1
	}
	c.Items = append(c.Items, CartItem{
		ID:         uuid.New().String(),
		ProductID:  p.ID,
		Name:       p.Name,
		PriceMinor: p.PriceMinor,
		Currency:   p.Currency,
		Quantity:   qty,
		IsNFT:      p.IsNFT,
		AddedAt:    time.Now().UTC(),
	})
	c.recompute()
	return ItemAdded
}

// UpdateQuantity sets the quantity of an existing line. It refuses qty <= 0
// (use RemoveItem) and refuses NFT lines, whose quantity is always 1.
func (c *Cart) UpdateQuantity(itemID string, qty int64) bool {
	if qty <= 0 {
		return false
	}
	for i := range c.Items {
		if c.Items[i].ID != itemID {
			continue
		}
		if c.Items[i].IsNFT {
			return false
		}
		c.Items[i].Quantity = qty
		c.recompute()
		return true
	}
	return false
}

func (c *Cart) RemoveItem(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.recompute()
			return true
		}
	}
	return false
}

// Clear empties the items and zeroes the totals. The payment history is
// append-only and survives clearing.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.recompute()
}

func (c *Cart) RecordPayment(rec PaymentRecord) {
	rec.UpdatedAt = time.Now().UTC()
	c.Payments = append(c.Payments, rec)
}

func (c *Cart) recompute() {
	c.TotalItems = 0
	c.Totals = map[string]int64{}
	for _, it := range c.Items {
		c.TotalItems += it.Quantity
		c.Totals[it.Currency] += it.PriceMinor * it.Quantity
	}
	c.UpdatedAt = time.Now().UTC()
}
