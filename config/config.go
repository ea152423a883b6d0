// Package config holds the settings used to reach the store and to shape the template's behaviour.
package config

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"hbasekit/store"
	"hbasekit/store/badger_store"
	"hbasekit/store/hbase_store"
	"hbasekit/util/logging"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendHBase  = "hbase"
	BackendBadger = "badger"
)

var (
	FlagBackend        = flag.String("hbase_backend", BackendHBase, "Store backend: hbase or badger")
	FlagQuorum         = flag.String("hbase_quorum", "localhost:2181", "Zookeeper quorum of the HBase cluster")
	FlagNodeParent     = flag.String("hbase_node_parent", "/hbase", "Root znode of the HBase cluster")
	FlagDataDir        = flag.String("hbase_data_dir", "", "Data directory used by the badger backend")
	FlagScannerCaching = flag.Int("hbase_scanner_caching", 1000,
		"Number of rows a scanner fetches from the server per round trip")
	FlagScannerTimeout = flag.Duration("hbase_scanner_timeout", 30*time.Second, "Timeout of a single scan")
	FlagRPCTimeout     = flag.Duration("hbase_rpc_timeout", 30*time.Second, "RPC timeout")
	FlagRetries        = flag.Int("hbase_retries", 5, "Number of attempts made to establish the connection")
	FlagThreadsCore    = flag.Int("hbase_connection_threads_core", 32,
		"Max number of concurrent RPCs issued for a single batched call")
	FlagWriteBufferSize = flag.Int64("hbase_write_buffer_size", 3*1024*1024,
		"Size in bytes at which the buffered mutator flushes")
	FlagMultiGetBatchSize = flag.Int("hbase_multi_get_batch_size", 100, "Number of rows fetched per batched get")
	FlagDefaultPageSize   = flag.Int("hbase_default_page_size", 10, "Page size of page requests that leave it unset")
	FlagEffectiveUser     = flag.String("hbase_effective_user", "", "User the HBase RPCs are issued as")
	FlagConfigFile        = flag.String("hbase_config", "", "Optional TOML file overriding the flag values")
)

var logger = logging.NewPrefixLogger("config")

var (
	ErrInvalidBackend = errors.New("ErrInvalidBackend: backend must be hbase or badger")
	ErrInvalidConfig  = errors.New("ErrInvalidConfig: invalid configuration")
)

// Config holds everything needed to reach a store and tune the template.
type Config struct {
	Backend           string            `toml:"backend"`
	Quorum            string            `toml:"quorum"`
	NodeParent        string            `toml:"node_parent"`
	DataDir           string            `toml:"data_dir"`
	EffectiveUser     string            `toml:"effective_user"`
	ScannerCaching    int               `toml:"scanner_caching"`
	ScannerTimeout    Duration          `toml:"scanner_timeout"`
	RPCTimeout        Duration          `toml:"rpc_timeout"`
	RetriesNumber     int               `toml:"retries_number"`
	ThreadsCore       int               `toml:"connection_threads_core"`
	WriteBufferSize   int64             `toml:"write_buffer_size"`
	MultiGetBatchSize int               `toml:"multi_get_batch_size"`
	DefaultPageSize   int               `toml:"default_page_size"`
	Properties        map[string]string `toml:"properties"`
}

// Duration is a time.Duration that reads and writes as a string like "30s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend:           BackendHBase,
		Quorum:            "localhost:2181",
		NodeParent:        "/hbase",
		ScannerCaching:    1000,
		ScannerTimeout:    Duration(30 * time.Second),
		RPCTimeout:        Duration(30 * time.Second),
		RetriesNumber:     5,
		ThreadsCore:       32,
		WriteBufferSize:   3 * 1024 * 1024,
		MultiGetBatchSize: 100,
		DefaultPageSize:   10,
		Properties:        map[string]string{},
	}
}

// FromFlags builds the configuration from the command line flags. If -hbase_config is set, the file is loaded on
// top of the flag values.
func FromFlags() (*Config, error) {
	cfg := Default()
	cfg.Backend = *FlagBackend
	cfg.Quorum = *FlagQuorum
	cfg.NodeParent = *FlagNodeParent
	cfg.DataDir = *FlagDataDir
	cfg.ScannerCaching = *FlagScannerCaching
	cfg.ScannerTimeout = Duration(*FlagScannerTimeout)
	cfg.RPCTimeout = Duration(*FlagRPCTimeout)
	cfg.RetriesNumber = *FlagRetries
	cfg.ThreadsCore = *FlagThreadsCore
	cfg.WriteBufferSize = *FlagWriteBufferSize
	cfg.MultiGetBatchSize = *FlagMultiGetBatchSize
	cfg.DefaultPageSize = *FlagDefaultPageSize
	cfg.EffectiveUser = *FlagEffectiveUser
	if len(*FlagConfigFile) > 0 {
		if err := cfg.LoadFile(*FlagConfigFile); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// Load reads the TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overrides the fields present in the TOML file.
func (cfg *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file %s: %w", path, err)
	}
	return cfg.Parse(data)
}

// Parse overrides the fields present in the TOML document.
func (cfg *Config) Parse(data []byte) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Marshal renders the configuration as TOML.
func (cfg *Config) Marshal() ([]byte, error) {
	return toml.Marshal(cfg)
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	switch cfg.Backend {
	case BackendHBase:
		if len(cfg.Quorum) == 0 {
			return fmt.Errorf("%w: quorum is required by the hbase backend", ErrInvalidConfig)
		}
	case BackendBadger:
		if len(cfg.DataDir) == 0 {
			return fmt.Errorf("%w: data_dir is required by the badger backend", ErrInvalidConfig)
		}
	default:
		return ErrInvalidBackend
	}
	if cfg.ScannerCaching <= 0 || cfg.RetriesNumber <= 0 || cfg.ThreadsCore <= 0 || cfg.WriteBufferSize <= 0 ||
		cfg.MultiGetBatchSize <= 0 || cfg.DefaultPageSize <= 0 {
		return fmt.Errorf("%w: sizes, counts and limits must be positive", ErrInvalidConfig)
	}
	if cfg.ScannerTimeout < 0 || cfg.RPCTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Connector returns the store connector of the configured backend.
func (cfg *Config) Connector() (store.Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendBadger:
		if len(cfg.Properties) > 0 {
			logger.Warningf("Ignoring %d client properties, they only apply to the hbase backend",
				len(cfg.Properties))
		}
		return badger_store.NewConnector(cfg.DataDir), nil
	default:
		opts, err := cfg.HBaseOptions()
		if err != nil {
			return nil, err
		}
		return hbase_store.NewConnector(opts), nil
	}
}

// HBaseOptions builds the gohbase options. The client properties are applied on top of the typed fields.
func (cfg *Config) HBaseOptions() (hbase_store.Options, error) {
	opts := hbase_store.Options{
		Quorum:           cfg.Quorum,
		ZookeeperRoot:    cfg.NodeParent,
		RPCTimeout:       time.Duration(cfg.RPCTimeout),
		EffectiveUser:    cfg.EffectiveUser,
		ScannerCaching:   cfg.ScannerCaching,
		ConcurrencyLimit: cfg.ThreadsCore,
	}
	ignored, err := opts.ApplyProperties(cfg.Properties)
	if err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, key := range ignored {
		logger.Warningf("Client property: %s is not supported by the hbase backend and is ignored", key)
	}
	return opts, nil
}

// Dial opens a connection to the configured backend.
func Dial(ctx context.Context, cfg *Config) (store.Connection, error) {
	connector, err := cfg.Connector()
	if err != nil {
		return nil, err
	}
	return connector(ctx)
}
