// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/vault/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "vault.config"

const (
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultShutdownTimeout = "30s"
	DefaultLedgerInterval  = "5s"
	DefaultGenesis         = "2025-01-01T00:00:00Z"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	DatabasePath   string `yaml:"databasePath"   split_words:"true"`
	BlobPlugin     string `yaml:"blobPlugin"     envconfig:"VAULT_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin string `yaml:"metadataPlugin" envconfig:"VAULT_DATABASE_METADATA_PLUGIN"`
	BindAddr       string `yaml:"bindAddr"       split_words:"true"`
	// MetricsPort of 0 disables the prometheus endpoint
	MetricsPort uint `yaml:"metricsPort" split_words:"true"`
	// Genesis is the RFC 3339 wall time of ledger 0
	Genesis         string `yaml:"genesis"`
	LedgerInterval  string `yaml:"ledgerInterval"  split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	Tracing         bool   `yaml:"tracing"`
	TracingStdout   bool   `yaml:"tracingStdout"   split_words:"true"`
	// VaultConfig is the governance configuration used by "init"
	VaultConfig string `yaml:"vaultConfig" split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".vault",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		MetricsPort:     12799,
		Genesis:         DefaultGenesis,
		LedgerInterval:  DefaultLedgerInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// MetricsAddress returns the metrics listen address, or an empty string when disabled
func (c *Config) MetricsAddress() string {
	if c.MetricsPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.BindAddr, c.MetricsPort)
}

func (c *Config) GenesisTime() (time.Time, error) {
	ret, err := time.Parse(time.RFC3339, c.Genesis)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid genesis: %w", err)
	}
	return ret, nil
}

func (c *Config) LedgerIntervalDuration() (time.Duration, error) {
	ret, err := time.ParseDuration(c.LedgerInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid ledger interval: %w", err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid ledger interval: %s", c.LedgerInterval)
	}
	return ret, nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return ret, nil
}

func (c *Config) validate() error {
	if c.BlobPlugin == "" || c.MetadataPlugin == "" {
		return errors.New("storage plugins must not be empty")
	}
	if _, err := c.GenesisTime(); err != nil {
		return err
	}
	if _, err := c.LedgerIntervalDuration(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if c.TracingStdout && !c.Tracing {
		return errors.New("tracingStdout requires tracing")
	}
	return nil
}

// findConfigFile looks in ~/.vault/vault.yaml and then /etc/vault/vault.yaml
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".vault", "vault.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/vault/vault.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

// LoadConfig builds the configuration from defaults, the YAML file and the
// environment, in that order of precedence
func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := cfg.loadYAML(buf); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process("vault", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(buf []byte) error {
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay config values onto existing defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		if err := yaml.Unmarshal(configBytes, c); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise unmarshal the whole file as main config
		if err := yaml.Unmarshal(buf, c); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			if name, ok := pluginSection(tempCfg.Database.Blob, pluginConfig, "blob"); ok {
				c.BlobPlugin = name
			}
		}
		if tempCfg.Database.Metadata != nil {
			if name, ok := pluginSection(tempCfg.Database.Metadata, pluginConfig, "metadata"); ok {
				c.MetadataPlugin = name
			}
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// pluginSection merges a "database.<type>" section into pluginConfig and
// returns the plugin name it selects, if any
func pluginSection(
	section map[string]any,
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
) (string, bool) {
	var pluginName string
	var selected bool
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			pluginName = name
			selected = true
		}
	}
	typeConfig := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			typeConfig[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			typeConfig[k] = stringAnyMap
		default:
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", pluginType, k, v)
		}
	}
	// Merge with existing plugin config instead of overwriting
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = typeConfig
	} else {
		maps.Copy(pluginConfig[pluginType], typeConfig)
	}
	return pluginName, selected
}
