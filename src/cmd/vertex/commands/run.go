package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vertexchain/vertex/src/crypto/keys"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/node"
)

// NewRunCmd returns the command that starts a vertex node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runVertex,
	}
	AddRunFlags(cmd)
	return cmd
}

func runVertex(cmd *cobra.Command, args []string) error {
	if err := initKey(); err != nil {
		return err
	}

	controlCh := make(chan events.Event, 1)

	n, err := node.Start(_config, controlCh)
	if err != nil {
		_config.Logger().WithError(err).Error("Cannot start node")
		return err
	}

	// Translate OS signals into a stop event for the node.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		_config.Logger().WithField("signal", sig.String()).Info("caught signal")
		controlCh <- events.StopEvent()
	}()

	return n.Wait()
}

// initKey loads the private key from the keyfile, or creates one if no
// keyfile exists yet.
func initKey() error {
	if _config.Keypair != nil {
		return nil
	}

	keyfile := keys.NewKeyfile(_config.Keyfile())

	kp, err := keyfile.ReadKeypair()
	if err != nil {
		_config.Logger().Warn("Cannot read private key from file: ", err)

		kp, err = keys.Generate()
		if err != nil {
			_config.Logger().Error("Cannot generate a new private key: ", err)
			return err
		}

		if err := os.MkdirAll(_config.DataDir, 0700); err != nil {
			return err
		}

		if err := keyfile.WriteKeypair(kp); err != nil {
			return err
		}

		_config.Logger().Info("Created a new key: ", kp.PublicKeyHex())
	}

	_config.Keypair = kp

	return nil
}

// AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Duplicate log output to this file")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")
	cmd.Flags().String("type", _config.NodeType, "Node role: full, miner, bootstrap or light")
	cmd.Flags().Uint16("idx", _config.Idx, "Index of this node within its quorum")

	// Network
	cmd.Flags().StringP("gossip-listen", "l", _config.GossipAddr, "Listen IP:Port for the gossip engine")
	cmd.Flags().Bool("no-gossip", _config.NoGossip, "Do not start the gossip module")
	cmd.Flags().StringSlice("bootstrap", _config.BootstrapAddrs, "Gossip IP:Port of bootstrap nodes")

	// RPC
	cmd.Flags().StringP("rpc-listen", "r", _config.JSONRPCAddr, "Listen IP:Port for the JSON-RPC server")
	cmd.Flags().Bool("no-rpc", _config.NoJSONRPC, "Do not start the JSON-RPC server")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for the HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Do not start the HTTP service")

	// Store
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")

	// Router
	cmd.Flags().Int("event-buffer", _config.EventBuffer, "Capacity of the router's inbound event channel")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := bindFlagsLoadViper(cmd); err != nil {
		return err
	}

	// If --datadir was explicitly set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	_config.Logger().WithFields(logrus.Fields{
		"datadir":        _config.DataDir,
		"type":           _config.NodeType,
		"moniker":        _config.Moniker,
		"gossip-listen":  _config.GossipAddr,
		"no-gossip":      _config.NoGossip,
		"bootstrap":      _config.BootstrapAddrs,
		"rpc-listen":     _config.JSONRPCAddr,
		"no-rpc":         _config.NoJSONRPC,
		"service-listen": _config.ServiceAddr,
		"no-service":     _config.NoService,
		"db":             _config.DatabaseDir,
		"event-buffer":   _config.EventBuffer,
		"log":            _config.LogLevel,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/vertex.toml (.json, .yaml also work)
	viper.SetConfigName("vertex")
	viper.AddConfigPath(_config.DataDir)

	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from the config file
	return viper.Unmarshal(_config)
}
