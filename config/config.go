package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TLSConfig holds paths to the PEM files needed for mTLS on the private
// intake port. When nil or all paths empty, the intake port falls back to
// plain TCP.
type TLSConfig struct {
	CACert   string `json:"ca_cert"`   // CA certificate PEM path
	NodeCert string `json:"node_cert"` // node certificate PEM path
	NodeKey  string `json:"node_key"`  // node private key PEM path
}

// ServerConfig is the public/private HTTP surface.
type ServerConfig struct {
	Address     string `json:"address"`
	Port        int    `json:"port"`         // public read API
	PrivatePort int    `json:"private_port"` // private write intake
}

// DatabaseConfig names the persisted store. Host/Port/User/Password,
// PoolLimit and MultiStatements mirror a SQL engine's configuration surface,
// but this service's store is goleveldb, not a SQL engine. Name is read as
// a filesystem path for the LevelDB directory, and the rest are accepted
// for compatibility with operators' existing configuration files and
// otherwise ignored.
type DatabaseConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	User            string `json:"user"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	PoolLimit       int    `json:"pool_limit"`
	MultiStatements bool   `json:"multi_statements"`
}

// ConsensusConfig describes the Agora network's block cadence.
type ConsensusConfig struct {
	GenesisTimestamp     int64  `json:"genesis_timestamp"`
	BlockIntervalSeconds int64  `json:"block_interval_seconds"`
	ValidatorCycle       uint64 `json:"validator_cycle"`
}

// GovernanceConfig toggles the governance subsystem.
type GovernanceConfig struct {
	Enabled          bool   `json:"enabled"`
	MetadataEndpoint string `json:"metadata_endpoint,omitempty"`
	GraceBlocks      uint64 `json:"grace_blocks"`
}

// Config holds all service configuration.
type Config struct {
	Server        ServerConfig     `json:"server"`
	PrivateTLS    *TLSConfig       `json:"private_tls,omitempty"`
	AgoraEndpoint string           `json:"agora_endpoint"`
	Database      DatabaseConfig   `json:"database"`
	Consensus     ConsensusConfig  `json:"consensus"`
	Governance    GovernanceConfig `json:"governance"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:     "0.0.0.0",
			Port:        4000,
			PrivatePort: 4001,
		},
		AgoraEndpoint: "http://127.0.0.1:2826",
		Database: DatabaseConfig{
			Name:      "./data/stoa",
			PoolLimit: 10,
		},
		Consensus: ConsensusConfig{
			BlockIntervalSeconds: 600,
			ValidatorCycle:       20,
		},
		Governance: GovernanceConfig{
			Enabled:     true,
			GraceBlocks: 7,
		},
	}
}

// Load reads a JSON config file from path and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.PrivatePort <= 0 || c.Server.PrivatePort > 65535 {
		return fmt.Errorf("server.private_port must be 1-65535, got %d", c.Server.PrivatePort)
	}
	if c.Server.Port == c.Server.PrivatePort {
		return fmt.Errorf("server.port and server.private_port must not be the same (%d)", c.Server.Port)
	}
	if c.AgoraEndpoint == "" {
		return fmt.Errorf("agora_endpoint must not be empty")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name must not be empty")
	}
	if c.Consensus.BlockIntervalSeconds <= 0 {
		return fmt.Errorf("consensus.block_interval_seconds must be positive")
	}
	if c.Consensus.ValidatorCycle == 0 {
		return fmt.Errorf("consensus.validator_cycle must be positive")
	}
	if c.Governance.Enabled && c.Governance.GraceBlocks == 0 {
		return fmt.Errorf("governance.grace_blocks must be positive when governance.enabled")
	}
	if c.PrivateTLS != nil {
		t := c.PrivateTLS
		allSet := t.CACert != "" && t.NodeCert != "" && t.NodeKey != ""
		allEmpty := t.CACert == "" && t.NodeCert == "" && t.NodeKey == ""
		if !allSet && !allEmpty {
			return fmt.Errorf("private_tls: all three paths (ca_cert, node_cert, node_key) must be set or all empty")
		}
	}
	return nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
