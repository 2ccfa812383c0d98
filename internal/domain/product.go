package domain

// NFT availability states. An NFT product has no numeric stock; it is a
// single item whose availability flips between these states.
const (
	NFTAvailable = "available"
	NFTReserved  = "reserved"
	NFTSold      = "sold"
)

type Product struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	PriceMinor int64  `bson:"price_minor"`
	Currency   string `bson:"currency"`
	Stock      int64  `bson:"stock"`
	IsNFT      bool   `bson:"is_nft"`
	NFTStatus  string `bson:"nft_status,omitempty"`
}

// Available reports whether the product can be added to a cart at all.
func (p Product) Available() bool {
	if p.IsNFT {
		return p.NFTStatus == NFTAvailable
	}
	return p.Stock > 0
}
