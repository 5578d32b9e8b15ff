// internal/market/contract.go
package market

import "github.com/floorlab/floorbot/internal/chain"

// On-chain module names under the deployed contract address.
const (
	galleryModule     = "gallery"
	marketplaceModule = "marketplace"
	treasuryModule    = "treasury"
)

// Contract binds the deployed module address to fully-qualified function
// identifiers.
type Contract struct {
	ModuleAddress string
}

func (c Contract) galleryFn(name string) string {
	return chain.FunctionID(c.ModuleAddress, galleryModule, name)
}

func (c Contract) marketplaceFn(name string) string {
	return chain.FunctionID(c.ModuleAddress, marketplaceModule, name)
}

func (c Contract) treasuryFn(name string) string {
	return chain.FunctionID(c.ModuleAddress, treasuryModule, name)
}

// View function identifiers.

func (c Contract) CollectionAddressFn() string { return c.galleryFn("collection_address") }
func (c Contract) SupplyFn() string            { return c.galleryFn("supply") }
func (c Contract) TokenByIndexFn() string      { return c.galleryFn("token_by_index") }
func (c Contract) OwnerOfFn() string           { return c.galleryFn("owner_of") }
func (c Contract) ListingFn() string           { return c.marketplaceFn("listing") }

// Entry function identifiers.

func (c Contract) MintFn() string   { return c.galleryFn("mint") }
func (c Contract) ListFn() string   { return c.marketplaceFn("list") }
func (c Contract) DelistFn() string { return c.marketplaceFn("delist") }
func (c Contract) BuyFn() string    { return c.marketplaceFn("buy") }
func (c Contract) BurnFn() string   { return c.treasuryFn("burn") }
