package config

import (
	"context"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig holds HashiCorp Vault connection settings. Vault is an optional
// credential source layered on top of file/env configuration.
type VaultConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Address    string        `mapstructure:"address"`
	Token      string        `mapstructure:"token"`
	MountPath  string        `mapstructure:"mountPath"`
	SecretPath string        `mapstructure:"secretPath"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Known secret keys under the configured secret path.
const (
	vaultKeyAIAPIKey     = "ai_api_key"
	vaultKeySearchAPIKey = "search_api_key"
	vaultKeyServerAPIKey = "server_api_key"
)

// VaultClient wraps the Vault API client for secret retrieval.
type VaultClient struct {
	client *vault.Client
	config VaultConfig
}

// NewVaultClient creates a Vault client and verifies connectivity. Returns an
// error rather than a degraded client: if an operator enables Vault they
// expect it to work.
func NewVaultClient(cfg VaultConfig) (*VaultClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("vault address is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("vault token is required")
	}

	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address
	vaultCfg.Timeout = cfg.Timeout

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	vc := &VaultClient{client: client, config: cfg}
	if err := vc.testConnection(); err != nil {
		return nil, fmt.Errorf("vault connection test failed: %w", err)
	}

	return vc, nil
}

func (vc *VaultClient) testConnection() error {
	health, err := vc.client.Sys().Health()
	if err != nil {
		return err
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

// readSecrets fetches the KV v2 secret at the configured path.
func (vc *VaultClient) readSecrets(ctx context.Context) (map[string]any, error) {
	secret, err := vc.client.KVv2(vc.config.MountPath).Get(ctx, vc.config.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s/%s: %w", vc.config.MountPath, vc.config.SecretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no secret data at %s/%s", vc.config.MountPath, vc.config.SecretPath)
	}
	return secret.Data, nil
}

// ApplySecrets overlays Vault-held credentials onto the configuration. Only
// keys present in the secret are applied; absent keys leave the existing
// (env/file) values intact.
func (vc *VaultClient) ApplySecrets(ctx context.Context, cfg *Config) error {
	data, err := vc.readSecrets(ctx)
	if err != nil {
		return err
	}

	if v, ok := data[vaultKeyAIAPIKey].(string); ok && v != "" {
		cfg.AI.APIKey = v
	}
	if v, ok := data[vaultKeySearchAPIKey].(string); ok && v != "" {
		cfg.Search.APIKey = v
	}
	if v, ok := data[vaultKeyServerAPIKey].(string); ok && v != "" {
		cfg.Server.APIKeys = append(cfg.Server.APIKeys, v)
	}

	return nil
}

// LoadVaultSecrets applies Vault credentials when Vault is enabled; a no-op
// otherwise.
func (c *Config) LoadVaultSecrets(ctx context.Context) error {
	if !c.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(c.Vault)
	if err != nil {
		return err
	}

	return client.ApplySecrets(ctx, c)
}
