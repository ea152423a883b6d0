package badger_store

import (
	"context"
	"fmt"
	"hbasekit/store"
	"hbasekit/util/testutil"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestConnection(t *testing.T, testName string) *Connection {
	testutil.LogTestMarker(testName)
	testDir := testutil.CreateTestDir(t, testName)
	conn, err := Open(testDir, DefaultOptions(testDir))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func createTestTable(t *testing.T, conn *Connection, name string, numRows int) store.Table {
	ctx := context.Background()
	require.NoError(t, conn.Admin().CreateTable(ctx, name, []string{"info", "stats"}))
	table, err := conn.Table(ctx, name)
	require.NoError(t, err)
	var mutations []*store.Mutation
	for ii := 0; ii < numRows; ii++ {
		row := []byte(fmt.Sprintf("row-%03d", ii))
		mutations = append(mutations, store.NewPut(row).
			AddColumn("info", "name", []byte(fmt.Sprintf("name-%d", ii))).
			AddColumn("info", "parity", []byte(fmt.Sprintf("%d", ii%2))).
			AddColumn("stats", "score", []byte(fmt.Sprintf("%d", ii*10))))
	}
	require.NoError(t, table.Mutate(ctx, mutations))
	return table
}

func collectRows(t *testing.T, table store.Table, scan *store.Scan) []string {
	scanner, err := table.Scan(context.Background(), scan)
	require.NoError(t, err)
	defer scanner.Close()
	var rows []string
	for {
		result, err := scanner.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, string(result.Row))
	}
}

func TestBadgerStoreAdmin(t *testing.T) {
	conn := openTestConnection(t, "TestBadgerStoreAdmin")
	ctx := context.Background()
	adm := conn.Admin()

	exists, err := adm.TableExists(ctx, "users")
	require.NoError(t, err)
	require.False(t, exists)
	_, err = conn.Table(ctx, "users")
	require.Equal(t, store.ErrTableNotFound, err)

	require.NoError(t, adm.CreateTable(ctx, "users", []string{"info"}))
	require.Equal(t, store.ErrTableExists, adm.CreateTable(ctx, "users", []string{"info"}))
	require.Equal(t, store.ErrInvalidTableName, adm.CreateTable(ctx, "bad/name", []string{"info"}))
	require.Equal(t, store.ErrInvalidTableName, adm.CreateTable(ctx, "nofamilies", nil))
	require.Equal(t, store.ErrInvalidFamilyName, adm.CreateTable(ctx, "other", []string{"in-fo"}))

	exists, err = adm.TableExists(ctx, "users")
	require.NoError(t, err)
	require.True(t, exists)

	table, err := conn.Table(ctx, "users")
	require.NoError(t, err)
	require.NoError(t, table.Mutate(ctx, []*store.Mutation{store.NewPut([]byte("r1")).AddColumn("info", "a", []byte("1"))}))
	require.NoError(t, adm.DeleteTable(ctx, "users"))
	require.Equal(t, store.ErrTableNotFound, adm.DeleteTable(ctx, "users"))

	// Recreating the table must not resurrect the old cells.
	require.NoError(t, adm.CreateTable(ctx, "users", []string{"info"}))
	table, err = conn.Table(ctx, "users")
	require.NoError(t, err)
	result, err := table.Get(ctx, store.NewGet([]byte("r1")))
	require.NoError(t, err)
	require.True(t, result.IsEmpty())
}

func TestBadgerStoreGetAndMutate(t *testing.T) {
	conn := openTestConnection(t, "TestBadgerStoreGetAndMutate")
	ctx := context.Background()
	table := createTestTable(t, conn, "users", 5)

	result, err := table.Get(ctx, store.NewGet([]byte("row-002")))
	require.NoError(t, err)
	require.Equal(t, "name-2", string(result.Value("info", "name")))
	require.Equal(t, "20", string(result.Value("stats", "score")))
	require.Equal(t, []string{"info", "stats"}, result.Families())
	require.NotZero(t, result.Cells[0].Timestamp)

	result, err = table.Get(ctx, store.NewGet([]byte("row-002")).AddColumn("info", "name"))
	require.NoError(t, err)
	require.Len(t, result.Cells, 1)

	result, err = table.Get(ctx, store.NewGet([]byte("row-002")).AddFamily("stats"))
	require.NoError(t, err)
	require.Len(t, result.Cells, 1)
	require.Equal(t, "score", string(result.Cells[0].Qualifier))

	result, err = table.Get(ctx, store.NewGet([]byte("missing")))
	require.NoError(t, err)
	require.True(t, result.IsEmpty())

	_, err = table.Get(ctx, store.NewGet(nil))
	require.Equal(t, store.ErrEmptyRow, err)
	_, err = table.Get(ctx, store.NewGet([]byte("row-001")).AddFamily("nope"))
	require.Equal(t, store.ErrFamilyNotFound, err)
	err = table.Mutate(ctx, []*store.Mutation{store.NewPut([]byte("x")).AddColumn("nope", "a", nil)})
	require.Equal(t, store.ErrFamilyNotFound, err)
	err = table.Mutate(ctx, []*store.Mutation{store.NewPut([]byte("x")).AddColumn("info", "a", nil),
		store.NewPut([]byte("empty"))})
	require.Equal(t, store.ErrNoColumns, err)
	result, err = table.Get(ctx, store.NewGet([]byte("x")))
	require.NoError(t, err)
	require.True(t, result.IsEmpty())

	// Column delete, family delete and row delete.
	require.NoError(t, table.Mutate(ctx, []*store.Mutation{
		store.NewDelete([]byte("row-001")).DeleteColumn("info", "name"),
		store.NewDelete([]byte("row-003")).DeleteFamily("info"),
		store.NewDelete([]byte("row-004")),
	}))
	result, err = table.Get(ctx, store.NewGet([]byte("row-001")))
	require.NoError(t, err)
	require.Nil(t, result.Value("info", "name"))
	require.Equal(t, "1", string(result.Value("info", "parity")))
	result, err = table.Get(ctx, store.NewGet([]byte("row-003")))
	require.NoError(t, err)
	require.Equal(t, []string{"stats"}, result.Families())
	result, err = table.Get(ctx, store.NewGet([]byte("row-004")))
	require.NoError(t, err)
	require.True(t, result.IsEmpty())

	results, err := table.BatchGet(ctx, []*store.Get{
		store.NewGet([]byte("row-000")), store.NewGet([]byte("row-004")), store.NewGet([]byte("row-002")),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "name-0", string(results[0].Value("info", "name")))
	require.True(t, results[1].IsEmpty())
	require.Equal(t, "name-2", string(results[2].Value("info", "name")))

	require.NoError(t, table.Close())
	_, err = table.Get(ctx, store.NewGet([]byte("row-000")))
	require.Equal(t, store.ErrClosed, err)
}

func TestBadgerStoreScan(t *testing.T) {
	conn := openTestConnection(t, "TestBadgerStoreScan")
	table := createTestTable(t, conn, "users", 10)

	require.Len(t, collectRows(t, table, &store.Scan{}), 10)
	require.Equal(t, []string{"row-002", "row-003", "row-004"},
		collectRows(t, table, store.NewScan([]byte("row-002"), []byte("row-005"))))
	require.Equal(t, []string{"row-002", "row-003", "row-004", "row-005"},
		collectRows(t, table, &store.Scan{StartRow: []byte("row-002"), StopRow: []byte("row-005"),
			IncludeStopRow: true}))
	require.Equal(t, []string{"row-005", "row-004", "row-003"},
		collectRows(t, table, &store.Scan{StartRow: []byte("row-005"), StopRow: []byte("row-002"),
			Reversed: true}))
	require.Equal(t, []string{"row-005", "row-004", "row-003", "row-002"},
		collectRows(t, table, &store.Scan{StartRow: []byte("row-005"), StopRow: []byte("row-002"),
			Reversed: true, IncludeStopRow: true}))
	require.Equal(t, []string{"row-009", "row-008"},
		collectRows(t, table, &store.Scan{Reversed: true, Limit: 2}))
	require.Equal(t, []string{"row-000", "row-001", "row-002"}, collectRows(t, table, &store.Scan{Limit: 3}))
	require.Equal(t, []string{"row-007", "row-008", "row-009"},
		collectRows(t, table, &store.Scan{StartRow: []byte("row-0065")}))

	// Filters and columns.
	scan := &store.Scan{Filters: []store.Filter{&store.ColumnValueFilter{Family: "info", Qualifier: "parity",
		Value: []byte("1")}}}
	require.Equal(t, []string{"row-001", "row-003", "row-005", "row-007", "row-009"}, collectRows(t, table, scan))
	scan = &store.Scan{Filters: []store.Filter{&store.PrefixFilter{Prefix: []byte("row-00")}}}
	require.Len(t, collectRows(t, table, scan), 10)

	scanner, err := table.Scan(context.Background(), (&store.Scan{Limit: 1}).AddColumn("stats", "score").
		AddFilter(&store.KeyOnlyFilter{}))
	require.NoError(t, err)
	result, err := scanner.Next()
	require.NoError(t, err)
	require.Len(t, result.Cells, 1)
	require.Equal(t, "score", string(result.Cells[0].Qualifier))
	require.Empty(t, result.Cells[0].Value)
	_, err = scanner.Next()
	require.Equal(t, io.EOF, err)
	require.NoError(t, scanner.Close())

	reversed, err := table.Scan(context.Background(), &store.Scan{Reversed: true, Limit: 1})
	require.NoError(t, err)
	result, err = reversed.Next()
	require.NoError(t, err)
	require.Equal(t, "info", string(result.Cells[0].Family))
	require.Equal(t, "name", string(result.Cells[0].Qualifier))
	require.NoError(t, reversed.Close())
}

func TestBadgerStoreRowCount(t *testing.T) {
	conn := openTestConnection(t, "TestBadgerStoreRowCount")
	ctx := context.Background()
	table := createTestTable(t, conn, "users", 25)

	count, err := table.RowCount(ctx, &store.Scan{})
	require.NoError(t, err)
	require.Equal(t, int64(25), count)

	count, err = table.RowCount(ctx, store.NewScan([]byte("row-005"), []byte("row-010")))
	require.NoError(t, err)
	require.Equal(t, int64(5), count)

	count, err = table.RowCount(ctx, &store.Scan{StartRow: []byte("row-005"), StopRow: []byte("row-010"),
		IncludeStopRow: true})
	require.NoError(t, err)
	require.Equal(t, int64(6), count)

	count, err = table.RowCount(ctx, &store.Scan{Filters: []store.Filter{&store.ColumnValueFilter{
		Family: "info", Qualifier: "parity", Value: []byte("0")}}})
	require.NoError(t, err)
	require.Equal(t, int64(13), count)
}

func TestBadgerStoreConnectorReusesConnection(t *testing.T) {
	testDir := testutil.CreateTestDir(t, "TestBadgerStoreConnectorReusesConnection")
	connector := NewConnector(testDir)
	first, err := connector(context.Background())
	require.NoError(t, err)
	second, err := connector(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.NoError(t, first.Close())
	_, err = first.Table(context.Background(), "users")
	require.Equal(t, store.ErrClosed, err)

	third, err := connector(context.Background())
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.NoError(t, third.Close())
}
