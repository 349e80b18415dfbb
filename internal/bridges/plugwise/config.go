package plugwise

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pw "github.com/nerrad567/gray-logic-plugwise/internal/plugwise"
)

const (
	defaultBridgeID       = "plugwise-bridge-01"
	defaultHealthInterval = 30
	defaultLogInterval    = 60
)

// Config is the bridge configuration file: identity plus the nodes the
// installer already knows about. Loaded from YAML with environment
// variable overrides.
type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
	Nodes  []NodeConfig `yaml:"nodes"`
}

// BridgeConfig contains bridge identity and operational settings.
type BridgeConfig struct {
	// ID identifies this bridge in health messages.
	ID string `yaml:"id"`

	// HealthInterval is how often to publish health status (seconds).
	HealthInterval int `yaml:"health_interval"`

	// LogInterval is the length of one power buffer slot (minutes), as set
	// on the relays with a power log interval request.
	LogInterval int `yaml:"log_interval"`
}

// NodeConfig seeds one node. Calibration is optional; when present it is
// used until the node reports its own calibration.
type NodeConfig struct {
	MAC         string               `yaml:"mac"`
	Name        string               `yaml:"name"`
	Type        string               `yaml:"type"`
	Calibration *pw.PowerCalibration `yaml:"calibration,omitempty"`
}

// LoadConfig reads a bridge configuration file.
//
// Environment variables PLUGWISE_BRIDGE_ID and PLUGWISE_BRIDGE_HEALTH_INTERVAL
// override the file.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:             defaultBridgeID,
			HealthInterval: defaultHealthInterval,
			LogInterval:    defaultLogInterval,
		},
		Nodes: []NodeConfig{},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLUGWISE_BRIDGE_ID"); v != "" {
		cfg.Bridge.ID = v
	}
	if v := os.Getenv("PLUGWISE_BRIDGE_HEALTH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.HealthInterval = n
		}
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}
	if c.Bridge.HealthInterval <= 0 {
		errs = append(errs, "bridge.health_interval must be positive")
	}
	if c.Bridge.LogInterval < 0 {
		errs = append(errs, "bridge.log_interval cannot be negative")
	}

	seen := make(map[pw.MACAddress]int, len(c.Nodes))
	for i, n := range c.Nodes {
		mac, err := pw.ParseMACAddress(n.MAC)
		if err != nil {
			errs = append(errs, fmt.Sprintf("nodes[%d].mac: %v", i, err))
			continue
		}
		if prev, dup := seen[mac]; dup {
			errs = append(errs, fmt.Sprintf("nodes[%d].mac duplicates nodes[%d]", i, prev))
		}
		seen[mac] = i

		dt := pw.DeviceTypeUnknown
		if n.Type != "" {
			var ok bool
			if dt, ok = pw.ParseDeviceType(n.Type); !ok {
				errs = append(errs, fmt.Sprintf("nodes[%d].type %q is not a known device type", i, n.Type))
			}
		}
		if n.Calibration != nil && dt != pw.DeviceTypeUnknown && !dt.IsRelayDevice() {
			errs = append(errs, fmt.Sprintf("nodes[%d].calibration is only valid for relay devices", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetHealthInterval returns the health interval as a duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Bridge.HealthInterval) * time.Second
}

// GetLogInterval returns the power buffer slot length as a duration.
func (c *Config) GetLogInterval() time.Duration {
	return time.Duration(c.Bridge.LogInterval) * time.Minute
}

// Node is a node known to the bridge.
type Node struct {
	MAC        pw.MACAddress
	Name       string
	DeviceType pw.DeviceType
	LastSeen   time.Time
}

// SeedNodes converts the configured nodes. It assumes Validate passed.
func (c *Config) SeedNodes() []Node {
	nodes := make([]Node, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		mac, err := pw.ParseMACAddress(n.MAC)
		if err != nil {
			continue
		}
		dt, _ := pw.ParseDeviceType(n.Type)
		nodes = append(nodes, Node{MAC: mac, Name: n.Name, DeviceType: dt})
	}
	return nodes
}

// SeedCalibrations returns the calibrations given in the configuration file.
func (c *Config) SeedCalibrations() map[pw.MACAddress]pw.PowerCalibration {
	cals := make(map[pw.MACAddress]pw.PowerCalibration)
	for _, n := range c.Nodes {
		if n.Calibration == nil {
			continue
		}
		mac, err := pw.ParseMACAddress(n.MAC)
		if err != nil {
			continue
		}
		cals[mac] = *n.Calibration
	}
	return cals
}
