package config

import (
	"context"
	"flag"
	"hbasekit/util/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 1000, cfg.ScannerCaching)
	require.Equal(t, Duration(30*time.Second), cfg.RPCTimeout)
	require.Equal(t, int64(3*1024*1024), cfg.WriteBufferSize)
	require.Equal(t, 10, cfg.DefaultPageSize)
}

func TestParseOverridesFields(t *testing.T) {
	cfg := Default()
	err := cfg.Parse([]byte(`
backend = "badger"
data_dir = "/var/lib/hbasekit"
scanner_timeout = "5s"
multi_get_batch_size = 20

[properties]
"hbase.client.pause" = "100"
`))
	require.NoError(t, err)
	require.Equal(t, BackendBadger, cfg.Backend)
	require.Equal(t, "/var/lib/hbasekit", cfg.DataDir)
	require.Equal(t, Duration(5*time.Second), cfg.ScannerTimeout)
	require.Equal(t, 20, cfg.MultiGetBatchSize)
	require.Equal(t, "100", cfg.Properties["hbase.client.pause"])
	// Untouched fields keep their defaults.
	require.Equal(t, 5, cfg.RetriesNumber)
	require.NoError(t, cfg.Validate())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	err := Default().Parse([]byte(`quorom = "typo:2181"`))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = "cassandra"
	require.Equal(t, ErrInvalidBackend, cfg.Validate())

	cfg = Default()
	cfg.Backend = BackendBadger
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.Quorum = ""
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.MultiGetBatchSize = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.RPCTimeout = Duration(-time.Second)
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadAndMarshal(t *testing.T) {
	testDir := testutil.CreateTestDir(t, "TestConfigLoadAndMarshal")
	cfg := Default()
	cfg.Quorum = "zk1:2181,zk2:2181"
	cfg.RPCTimeout = Duration(time.Minute)
	data, err := cfg.Marshal()
	require.NoError(t, err)
	path := filepath.Join(testDir, "hbasekit.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Quorum, loaded.Quorum)
	require.Equal(t, Duration(time.Minute), loaded.RPCTimeout)

	_, err = Load(filepath.Join(testDir, "missing.toml"))
	require.Error(t, err)
}

func TestDialBadger(t *testing.T) {
	testDir := testutil.CreateTestDir(t, "TestConfigDialBadger")
	cfg := Default()
	cfg.Backend = BackendBadger
	cfg.DataDir = testDir
	conn, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	cfg.Backend = "nope"
	_, err = Dial(context.Background(), cfg)
	require.Equal(t, ErrInvalidBackend, err)
}

func TestHBaseOptionsApplyProperties(t *testing.T) {
	cfg := Default()
	cfg.EffectiveUser = "etl"
	err := cfg.Parse([]byte(`
rpc_timeout = "10s"

[properties]
"zookeeper.session.timeout" = "45000"
"hbase.client.scanner.max.result.size" = "4194304"
"hbase.client.pause" = "100"
`))
	require.NoError(t, err)
	opts, err := cfg.HBaseOptions()
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, opts.ZookeeperTimeout)
	require.Equal(t, uint64(4194304), opts.ScannerMaxResultSize)
	require.Equal(t, 10*time.Second, opts.RPCTimeout)
	require.Equal(t, "etl", opts.EffectiveUser)
	require.Equal(t, "/hbase", opts.ZookeeperRoot)
	require.Equal(t, 32, opts.ConcurrencyLimit)

	// Properties win over the typed fields.
	cfg.Properties["hbase.rpc.timeout"] = "2000"
	opts, err = cfg.HBaseOptions()
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, opts.RPCTimeout)

	cfg.Properties["zookeeper.session.timeout"] = "forever"
	_, err = cfg.HBaseOptions()
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = cfg.Connector()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromFlagsPageSizeAndUser(t *testing.T) {
	require.NoError(t, flag.Set("hbase_default_page_size", "25"))
	require.NoError(t, flag.Set("hbase_effective_user", "etl"))
	t.Cleanup(func() {
		_ = flag.Set("hbase_default_page_size", "10")
		_ = flag.Set("hbase_effective_user", "")
	})
	cfg, err := FromFlags()
	require.NoError(t, err)
	require.Equal(t, 25, cfg.DefaultPageSize)
	require.Equal(t, "etl", cfg.EffectiveUser)
}
