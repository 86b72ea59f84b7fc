package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// NetworkConfig holds the network-wide, non-consensus parameters.
type NetworkConfig struct {
	Name             string    `yaml:"name" envconfig:"CHRD_NETWORK_NAME"`
	GenesisTimestamp time.Time `yaml:"-"`
	SeedNodes        []string  `yaml:"seed_nodes" envconfig:"CHRD_SEED_NODES"`
	ListenAddr       string    `yaml:"listen_addr" envconfig:"CHRD_LISTEN_ADDR"`
	RPCAddr          string    `yaml:"rpc_addr" envconfig:"CHRD_RPC_ADDR"`
}

// ConsensusYAML is the on-disk shape of the consensus section: plain
// integers and hex strings, decoded into consensus.Params at Load time.
// consensus.Params itself carries no YAML/env tags, so the engine package
// has no dependency on the config-loading libraries.
type ConsensusYAML struct {
	PowLimitSha256Hex            string `yaml:"pow_limit_sha256_hex" envconfig:"CHRD_POW_LIMIT_SHA256"`
	PowLimitScryptHex            string `yaml:"pow_limit_scrypt_hex" envconfig:"CHRD_POW_LIMIT_SCRYPT"`
	PowLimitPosHex               string `yaml:"pow_limit_pos_hex" envconfig:"CHRD_POW_LIMIT_POS"`
	PowTargetSpacing             int64  `yaml:"pow_target_spacing" envconfig:"CHRD_POW_TARGET_SPACING"`
	PowTargetTimespan            int64  `yaml:"pow_target_timespan" envconfig:"CHRD_POW_TARGET_TIMESPAN"`
	FPowNoRetargeting            bool   `yaml:"pow_no_retargeting" envconfig:"CHRD_POW_NO_RETARGETING"`
	FPowAllowMinDifficultyBlocks bool   `yaml:"pow_allow_min_difficulty_blocks" envconfig:"CHRD_POW_ALLOW_MIN_DIFFICULTY"`
	StakeTimestampMask           int64  `yaml:"stake_timestamp_mask" envconfig:"CHRD_STAKE_TIMESTAMP_MASK"`
}

// Config is the root configuration document: network plumbing plus the
// consensus parameters the retargeting engine is constructed from.
type Config struct {
	Network   NetworkConfig `yaml:"network"`
	Consensus ConsensusYAML `yaml:"consensus"`
}

// TestnetDefaults mirrors the deployed Phase II testnet: a low pow_limit
// (so CPU mining is viable), a 14-day retarget window, 10-minute PoW spacing
// hard-coded into the engine itself (see consensus.Params.targetSpacing),
// and min-difficulty blocks enabled.
func TestnetDefaults() *Config {
	return &Config{
		Network: NetworkConfig{
			Name:             "chrd-testnet-v1",
			GenesisTimestamp: time.Unix(1735689600, 0), // 2025-01-01T00:00:00Z
			ListenAddr:       ":9000",
			RPCAddr:          ":9100",
		},
		Consensus: ConsensusYAML{
			PowLimitSha256Hex:            "00000fffff000000000000000000000000000000000000000000000000000000",
			PowLimitScryptHex:            "00000fffff000000000000000000000000000000000000000000000000000000",
			PowLimitPosHex:               "00000fffff000000000000000000000000000000000000000000000000000000",
			PowTargetSpacing:             600,
			PowTargetTimespan:            1209600, // 14 days
			FPowNoRetargeting:            false,
			FPowAllowMinDifficultyBlocks: true,
			StakeTimestampMask:           15,
		},
	}
}

// Load reads an optional YAML file at path (TestnetDefaults() if path is
// empty or the file doesn't exist), then overlays environment variables via
// envconfig — file-then-env precedence, same order this chain's node config
// has always used.
func Load(path string) (*Config, error) {
	cfg := TestnetDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("chrd", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConsensusParams decodes the YAML/env consensus section into the engine's
// own Params type.
func (c *Config) ConsensusParams() (*consensus.Params, error) {
	posLimit, err := hexToBigInt256(c.Consensus.PowLimitPosHex)
	if err != nil {
		return nil, err
	}
	sha256Limit, err := hexToBigInt256(c.Consensus.PowLimitSha256Hex)
	if err != nil {
		return nil, err
	}
	scryptLimit, err := hexToBigInt256(c.Consensus.PowLimitScryptHex)
	if err != nil {
		return nil, err
	}

	params := &consensus.Params{
		PowTargetSpacing:             c.Consensus.PowTargetSpacing,
		PowTargetTimespan:            c.Consensus.PowTargetTimespan,
		FPowNoRetargeting:            c.Consensus.FPowNoRetargeting,
		FPowAllowMinDifficultyBlocks: c.Consensus.FPowAllowMinDifficultyBlocks,
		StakeTimestampMask:           c.Consensus.StakeTimestampMask,
	}
	params.PowLimit[types.AlgoPOS] = posLimit
	params.PowLimit[types.AlgoPOWSha256] = sha256Limit
	params.PowLimit[types.AlgoPOWScrypt] = scryptLimit
	return params, nil
}

func hexToBigInt256(s string) (bigint.BigInt256, error) {
	h, err := types.HashFromHex(padHex(s))
	if err != nil {
		return bigint.BigInt256{}, err
	}
	return bigint.BigInt256FromBytes(h.Bytes()), nil
}

// padHex left-pads (or truncates) a hex string to a full 64-char (32-byte)
// representation, so operators can write pow_limit values without leading
// zero padding in YAML or the environment.
func padHex(s string) string {
	for len(s) < 64 {
		s = "0" + s
	}
	return s[len(s)-64:]
}

// GenesisMinerAddress is the hardcoded coinbase recipient for the testnet
// genesis block (a burn address — no premine).
var GenesisMinerAddress = types.Hash{}
