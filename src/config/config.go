package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/vertexchain/vertex/src/common"
	"github.com/vertexchain/vertex/src/crypto/keys"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the node's
	// private key
	DefaultKeyfile = "priv_key"

	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel    = "debug"
	DefaultGossipAddr  = "127.0.0.1:9090"
	DefaultJSONRPCAddr = "127.0.0.1:9293"
	DefaultServiceAddr = "127.0.0.1:8080"
	DefaultNodeType    = "full"
	DefaultEventBuffer = 1024
)

// Config contains all the configuration properties of a vertex node.
type Config struct {
	// DataDir is the top-level directory containing vertex configuration
	// and data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, duplicates log output to a file via a logrus
	// hook.
	LogFile string `mapstructure:"log-file"`

	// Moniker defines the friendly name of this node.
	Moniker string `mapstructure:"moniker"`

	// ID is the node identifier. When empty it is derived from the public
	// key at startup.
	ID string `mapstructure:"id"`

	// Idx is the index of this node within its quorum.
	Idx uint16 `mapstructure:"idx"`

	// NodeType selects the role of this node: full, miner, bootstrap or
	// light.
	NodeType string `mapstructure:"type"`

	// GossipAddr is the local address:port the gossip engine binds to.
	// Port 0 asks the OS for an ephemeral port; the resolved address is
	// written back into the config during startup.
	GossipAddr string `mapstructure:"gossip-listen"`

	// NoGossip disables the gossip module entirely.
	NoGossip bool `mapstructure:"no-gossip"`

	// JSONRPCAddr is the address:port of the JSON-RPC server.
	JSONRPCAddr string `mapstructure:"rpc-listen"`

	// NoJSONRPC disables the JSON-RPC server.
	NoJSONRPC bool `mapstructure:"no-rpc"`

	// ServiceAddr is the address:port of the HTTP info service.
	ServiceAddr string `mapstructure:"service-listen"`

	// NoService disables the HTTP info service.
	NoService bool `mapstructure:"no-service"`

	// BootstrapAddrs lists gossip addresses of bootstrap nodes to contact
	// on startup.
	BootstrapAddrs []string `mapstructure:"bootstrap"`

	// DatabaseDir is the directory containing the state database files.
	DatabaseDir string `mapstructure:"db"`

	// EventBuffer is the capacity of the router's inbound event channel.
	EventBuffer int `mapstructure:"event-buffer"`

	// Keypair is the node's secp256k1 keypair, loaded or generated at
	// startup.
	Keypair *keys.Keypair `mapstructure:"-"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:     DefaultDataDir(),
		LogLevel:    DefaultLogLevel,
		NodeType:    DefaultNodeType,
		GossipAddr:  DefaultGossipAddr,
		JSONRPCAddr: DefaultJSONRPCAddr,
		ServiceAddr: DefaultServiceAddr,
		DatabaseDir: DefaultDatabaseDir(),
		EventBuffer: DefaultEventBuffer,
	}
}

// NewTestConfig returns a config object with default values, an in-memory
// friendly layout and a logger that writes through the testing framework.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	config.GossipAddr = "127.0.0.1:0"
	config.JSONRPCAddr = "127.0.0.1:0"
	config.ServiceAddr = "127.0.0.1:0"
	return config
}

// SetDataDir sets the top-level vertex directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not the default, the user has explicitly set it to something
// else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// Validate checks config invariants that would otherwise surface as
// confusing startup faults.
func (c *Config) Validate() error {
	if _, err := ParseNodeType(c.NodeType); err != nil {
		return err
	}

	if c.EventBuffer < 1 {
		return fmt.Errorf("event-buffer must be positive, got %d", c.EventBuffer)
	}

	return nil
}

// Logger returns a formatted logrus Entry with prefix set to "vertex". When
// LogFile is configured, output is duplicated to the file through an
// lfshook.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			pathMap := lfshook.PathMap{}
			for _, level := range logrus.AllLevels {
				pathMap[level] = c.LogFile
			}
			c.logger.Hooks.Add(lfshook.NewHook(pathMap, &logrus.JSONFormatter{}))
		}
	}
	return c.logger.WithField("prefix", "vertex")
}

// DefaultDatabaseDir returns the default path for the badger database
// files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level vertex
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Vertex")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Vertex")
		} else {
			return filepath.Join(home, ".vertex")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
