// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
network: testnet
endpoints:
  testnet: https://testnet.ledger.example.com
module_address: "0xcafe"
treasury_address: "0xfeed"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, DefaultBatchWidth, cfg.BatchWidth)
	assert.Equal(t, DefaultRefreshDelay, cfg.RefreshDelay)
	assert.Equal(t, DefaultStaleDelay, cfg.StaleDelay)
	assert.Equal(t, DefaultConfirmTimeout, cfg.ConfirmTimeout)
	assert.Equal(t, DefaultSweepDelay, cfg.SweepDelay)
	assert.True(t, cfg.RefetchOnFocus)
	assert.Equal(t, ":9090", cfg.MetricsAddr)

	endpoint, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://testnet.ledger.example.com", endpoint)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig+`
batch_width: 25
refresh_delay: 5000
`))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.BatchWidth)
	assert.Equal(t, 5000, cfg.RefreshDelay)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing module address",
			content: `
network: testnet
endpoints:
  testnet: https://testnet.ledger.example.com
treasury_address: "0xfeed"
`,
			wantErr: "module_address",
		},
		{
			name: "missing treasury address",
			content: `
network: testnet
endpoints:
  testnet: https://testnet.ledger.example.com
module_address: "0xcafe"
`,
			wantErr: "treasury_address",
		},
		{
			name: "no endpoint for network",
			content: `
network: mainnet
endpoints:
  testnet: https://testnet.ledger.example.com
module_address: "0xcafe"
treasury_address: "0xfeed"
`,
			wantErr: "no endpoint configured",
		},
		{
			name: "bad endpoint protocol",
			content: `
network: testnet
endpoints:
  testnet: ftp://testnet.ledger.example.com
module_address: "0xcafe"
treasury_address: "0xfeed"
`,
			wantErr: "invalid endpoint URL protocol",
		},
		{
			name:    "sweep budget without wallet bridge",
			content: validConfig + "sweep_budget: 100000000\n",
			wantErr: "wallet_bridge_url",
		},
		{
			name:    "zero batch width",
			content: validConfig + "batch_width: 0\n",
			wantErr: "invalid batch_width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("FLOORBOT_NETWORK", "mainnet")

	cfg, err := LoadConfig(writeConfig(t, `
network: testnet
endpoints:
  testnet: https://testnet.ledger.example.com
  mainnet: https://mainnet.ledger.example.com
module_address: "0xcafe"
treasury_address: "0xfeed"
`))
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
}
