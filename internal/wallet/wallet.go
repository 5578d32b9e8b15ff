// internal/wallet/wallet.go
package wallet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/floorlab/floorbot/internal/addr"
	"github.com/floorlab/floorbot/internal/chain"
)

// Signer is the wallet boundary. Key management and transaction
// cryptography live behind it; this module never sees private keys.
type Signer interface {
	// Address returns the canonical account address of the signer.
	Address() string
	// Sign produces a signed transaction for the given payload.
	Sign(ctx context.Context, payload chain.EntryFunctionPayload) (chain.SignedTransaction, error)
}

// Account is a named address from the account book, used for display and
// holdings queries.
type Account struct {
	Name    string
	Address string
}

// accountsFile is the YAML shape of the account book.
type accountsFile struct {
	Accounts []struct {
		Name    string `yaml:"name"`
		Address string `yaml:"address"`
	} `yaml:"accounts"`
}

// LoadAccounts loads the account book from a YAML file.
func LoadAccounts(path string) (map[string]Account, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	accounts := make(map[string]Account, len(file.Accounts))
	for _, a := range file.Accounts {
		if a.Name == "" || a.Address == "" {
			return nil, fmt.Errorf("account entry missing name or address")
		}
		accounts[a.Name] = Account{
			Name:    a.Name,
			Address: addr.Normalize(a.Address),
		}
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts defined in %s", cleanPath)
	}
	return accounts, nil
}
