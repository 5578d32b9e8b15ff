// internal/market/types.go
package market

// TokenRef ties a sequential token index to its durable on-ledger object
// address. The mapping is immutable once resolved; burned tokens simply
// fail to resolve.
type TokenRef struct {
	Index      uint64 `json:"index"`
	Object     string `json:"object"`
	Collection string `json:"collection"`
}

// Holding is a token claimed by an address, either through direct
// ownership or as the recorded seller of an escrowed listing.
type Holding struct {
	Token TokenRef `json:"token"`
	Owner string   `json:"owner"`
	// Listed marks constructive ownership via marketplace escrow.
	Listed bool   `json:"listed"`
	Price  uint64 `json:"price,omitempty"`
}

// Listing is an active marketplace escrow record. Price is in the
// ledger's smallest unit (8 implied decimal places).
type Listing struct {
	Token  TokenRef `json:"token"`
	Seller string   `json:"seller"`
	Price  uint64   `json:"price"`
}

// HoldingsResult is the aggregate of one holdings scan, sorted by token
// index ascending.
type HoldingsResult struct {
	Items []Holding `json:"items"`
	Total int       `json:"total"`
}

// ListingsResult is the aggregate of one listings scan, sorted by token
// index ascending.
type ListingsResult struct {
	Items []Listing `json:"items"`
	Total int       `json:"total"`
}

// FloorResult is the cheapest active listing excluding treasury
// self-listings. Floor is nil when no eligible listing exists;
// TotalListings counts eligible listings only.
type FloorResult struct {
	Floor         *Listing `json:"floor"`
	TotalListings int      `json:"total_listings"`
}
