package main

import (
	"bytes"
	"context"
	"hbasekit/page"
	"hbasekit/store"
	"hbasekit/util/testutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, dataDir string, args ...string) (string, error) {
	var out bytes.Buffer
	args = append([]string{"--hbase_backend=badger", "--hbase_data_dir=" + dataDir, "--hbase_config=",
		"--hbase_default_page_size=10"}, args...)
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	testutil.LogTestMarker("TestCommands")
	dataDir := testutil.CreateTestDir(t, "TestCommands")

	_, err := runCommand(t, dataDir, "create-table", "users", "info", "stats")
	require.NoError(t, err)
	for _, row := range []string{"u1", "u2", "u3", "u4"} {
		_, err = runCommand(t, dataDir, "put", "users", row, "info:name=n-"+row, "stats:score=1")
		require.NoError(t, err)
	}

	out, err := runCommand(t, dataDir, "get", "users", "u2", "missing", "--columns", "info:name")
	require.NoError(t, err)
	require.Equal(t, "u2 info:name=n-u2\n", out)

	out, err = runCommand(t, dataDir, "scan", "users", "--start", "u2", "--stop", "u3", "--include-stop",
		"--keys-only", "--columns", "info")
	require.NoError(t, err)
	require.Equal(t, "u2 info:name=\nu3 info:name=\n", out)

	out, err = runCommand(t, dataDir, "count", "users", "--start", "u2")
	require.NoError(t, err)
	require.Equal(t, "3\n", out)

	out, err = runCommand(t, dataDir, "page", "users", "--size", "2", "--columns", "info:name")
	require.NoError(t, err)
	require.Equal(t, "u1 info:name=n-u1\nu2 info:name=n-u2\ntotal: 4 first: u1 last: u2\n", out)

	out, err = runCommand(t, dataDir, "page", "users", "--size", "2", "--columns", "info:name", "--move", "next",
		"--first", "u1", "--last", "u2")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "total: 4 first: u3 last: u4\n"))

	out, err = runCommand(t, dataDir, "page", "users", "--hbase_default_page_size=3", "--columns", "info:name")
	require.NoError(t, err)
	require.Equal(t, "u1 info:name=n-u1\nu2 info:name=n-u2\nu3 info:name=n-u3\ntotal: 4 first: u1 last: u3\n", out)

	_, err = runCommand(t, dataDir, "delete", "users", "u1", "stats")
	require.NoError(t, err)
	out, err = runCommand(t, dataDir, "get", "users", "u1")
	require.NoError(t, err)
	require.Equal(t, "u1 info:name=n-u1\n", out)

	_, err = runCommand(t, dataDir, "delete", "users", "u1")
	require.NoError(t, err)
	out, err = runCommand(t, dataDir, "count", "users")
	require.NoError(t, err)
	require.Equal(t, "3\n", out)

	_, err = runCommand(t, dataDir, "drop-table", "users")
	require.NoError(t, err)
	_, err = runCommand(t, dataDir, "count", "users")
	require.ErrorIs(t, err, store.ErrTableNotFound)

	_, err = runCommand(t, dataDir, "put", "users", "u1", "bad-cell")
	require.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	column, err := parseColumn("info:name")
	require.NoError(t, err)
	require.Equal(t, store.Column{Family: "info", Qualifier: "name"}, column)
	column, err = parseColumn("info")
	require.NoError(t, err)
	require.Equal(t, store.Column{Family: "info"}, column)
	_, err = parseColumn(":name")
	require.Error(t, err)

	column, value, err := parseCell("info:url=http://x?a=b")
	require.NoError(t, err)
	require.Equal(t, "url", column.Qualifier)
	require.Equal(t, "http://x?a=b", value)
	_, _, err = parseCell("info=1")
	require.Error(t, err)
	_, _, err = parseCell("info:name")
	require.Error(t, err)

	move, err := parseMove("prev")
	require.NoError(t, err)
	require.Equal(t, page.MovePrevious, move)
	_, err = parseMove("sideways")
	require.Error(t, err)
	require.Nil(t, rowArg(""))
}
