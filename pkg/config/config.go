package config

// Package config provides a reusable loader for spiralchain node
// configuration files and environment variables. It is versioned so that
// applications can depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/synnergy-spiral/spiralchain/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a spiralchain node. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Network struct {
		ID             string   `mapstructure:"id" json:"id"`
		MaxPeers       int      `mapstructure:"max_peers" json:"max_peers"`
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		DiscoveryTag   string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Consensus struct {
		SlotDurationMS     int `mapstructure:"slot_duration_ms" json:"slot_duration_ms"`
		ValidatorsRequired int `mapstructure:"validators_required" json:"validators_required"`
	} `mapstructure:"consensus" json:"consensus"`

	Storage struct {
		DataDir          string `mapstructure:"data_dir" json:"data_dir"`
		ValidatorKeyfile string `mapstructure:"validator_keyfile" json:"validator_keyfile"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv()
	applyEnvOverrides()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	if AppConfig.Consensus.SlotDurationMS == 0 {
		AppConfig.Consensus.SlotDurationMS = SlotDurationForNetwork(networkFromID(AppConfig.Network.ID))
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the SPIRALCHAIN_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("SPIRALCHAIN_ENV", ""))
}

// applyEnvOverrides maps §6's enumerated environment variables onto the
// loaded config, taking precedence over the YAML files.
func applyEnvOverrides() {
	if v := utils.EnvOrDefault("NETWORK", ""); v != "" {
		viper.Set("network.id", v)
	}
	if v := utils.EnvOrDefault("DATA_DIR", ""); v != "" {
		viper.Set("storage.data_dir", v)
	}
	if v := utils.EnvOrDefault("LISTEN_ADDR", ""); v != "" {
		viper.Set("network.listen_addr", v)
	}
	if v := utils.EnvOrDefault("VALIDATOR_KEYFILE", ""); v != "" {
		viper.Set("storage.validator_keyfile", v)
	}
	if v := utils.EnvOrDefault("BOOTSTRAP_PEERS", ""); v != "" {
		viper.Set("network.bootstrap_peers", strings.Split(v, ","))
	}
}

// networkFromID reports "mainnet" for a production-sounding network id and
// "testnet" otherwise.
func networkFromID(id string) string {
	if strings.Contains(id, "mainnet") {
		return "mainnet"
	}
	return "testnet"
}

// SlotDurationForNetwork returns the protocol-fixed SLOT_DURATION_MS for
// "mainnet" or "testnet"; any other value is treated as testnet.
func SlotDurationForNetwork(network string) int {
	if network == "mainnet" {
		return 60_000
	}
	return 30_000
}
