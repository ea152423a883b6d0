package mapper

import (
	"errors"
	"hbasekit/store"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type user struct {
	ID      string        `hbase:"rowkey"`
	Name    string        `hbase:"name"`
	Age     int           `hbase:"age"`
	Active  bool          `hbase:"active"`
	Timeout time.Duration `hbase:"timeout"`
	Ignored string        `hbase:"-"`
}

func testResult() *store.Result {
	return &store.Result{Row: []byte("user-7"), Cells: []*store.Cell{
		{Family: []byte("info"), Qualifier: []byte("active"), Value: []byte("true")},
		{Family: []byte("info"), Qualifier: []byte("age"), Value: []byte("42")},
		{Family: []byte("info"), Qualifier: []byte("name"), Value: []byte("alice")},
		{Family: []byte("info"), Qualifier: []byte("timeout"), Value: []byte("1m30s")},
	}}
}

func TestMapHandlers(t *testing.T) {
	raw, err := Default(testResult(), 0)
	require.NoError(t, err)
	require.Equal(t, []byte("alice"), raw["name"])

	strs, err := Strings(testResult(), 0)
	require.NoError(t, err)
	require.Equal(t, "42", strs["age"])

	objs, err := Objects(testResult(), 0)
	require.NoError(t, err)
	require.Equal(t, "true", objs["active"])

	key, err := RowKeys(testResult(), 3)
	require.NoError(t, err)
	require.Equal(t, "user-7", string(key))
}

func TestStructMapper(t *testing.T) {
	got, err := Struct[user]()(testResult(), 0)
	require.NoError(t, err)
	require.Equal(t, user{ID: "user-7", Name: "alice", Age: 42, Active: true, Timeout: 90 * time.Second}, got)

	ptr, err := Struct[*user]()(testResult(), 0)
	require.NoError(t, err)
	require.Equal(t, "alice", ptr.Name)

	bad := testResult()
	bad.Cells[1].Value = []byte("forty-two")
	_, err = Struct[user]()(bad, 0)
	require.Error(t, err)
}

func TestMapAll(t *testing.T) {
	results := []*store.Result{{Row: []byte("a")}, {Row: []byte("b")}}
	var rowNums []int
	rows, err := MapAll(results, 5, func(result *store.Result, rowNum int) (string, error) {
		rowNums = append(rowNums, rowNum)
		return string(result.Row), nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, rows)
	require.Equal(t, []int{5, 6}, rowNums)

	boom := errors.New("boom")
	_, err = MapAll(results, 0, func(result *store.Result, rowNum int) (string, error) {
		return "", boom
	})
	require.Equal(t, boom, err)
}

func TestToPut(t *testing.T) {
	put, err := ToPut([]byte("user-7"), "info", user{ID: "user-7", Name: "alice", Age: 42, Ignored: "x"})
	require.NoError(t, err)
	require.Equal(t, store.KindPut, put.Kind)
	values := make(map[string]string)
	for _, cell := range put.Cells {
		require.Equal(t, "info", string(cell.Family))
		values[string(cell.Qualifier)] = string(cell.Value)
	}
	require.Equal(t, "alice", values["name"])
	require.Equal(t, "42", values["age"])
	require.Equal(t, "false", values["active"])
	require.NotContains(t, values, "rowkey")
	require.NotContains(t, values, "Ignored")

	// Round trip through the struct mapper.
	result := &store.Result{Row: put.Row, Cells: put.Cells}
	got, err := Struct[user]()(result, 0)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Name)
	require.Equal(t, 42, got.Age)
	require.Equal(t, "user-7", got.ID)

	fromMap, err := ToPut([]byte("r"), "info", map[string]interface{}{"b": []byte("raw"), "a": 1})
	require.NoError(t, err)
	require.Equal(t, "a", string(fromMap.Cells[0].Qualifier))
	require.Equal(t, "raw", string(fromMap.Cells[1].Value))

	_, err = ToPut([]byte("r"), "info", 42)
	require.Equal(t, ErrNotStruct, err)
	_, err = ToPut(nil, "info", user{})
	require.Equal(t, store.ErrEmptyRow, err)
}
