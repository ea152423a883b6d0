package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanInRange(t *testing.T) {
	scan := NewScan([]byte("b"), []byte("d"))
	require.False(t, scan.InRange([]byte("a")))
	require.True(t, scan.InRange([]byte("b")))
	require.True(t, scan.InRange([]byte("c9")))
	require.False(t, scan.InRange([]byte("d")))
	scan.IncludeStopRow = true
	require.True(t, scan.InRange([]byte("d")))
	require.False(t, scan.InRange([]byte("d0")))

	reversed := &Scan{StartRow: []byte("d"), StopRow: []byte("b"), Reversed: true}
	require.True(t, reversed.InRange([]byte("d")))
	require.True(t, reversed.InRange([]byte("c")))
	require.False(t, reversed.InRange([]byte("b")))
	require.False(t, reversed.InRange([]byte("d0")))
	reversed.IncludeStopRow = true
	require.True(t, reversed.InRange([]byte("b")))

	require.True(t, (&Scan{}).InRange([]byte("anything")))
}

func TestScanClone(t *testing.T) {
	scan := (&Scan{Limit: 3}).AddFamily("info").AddFilter(&KeyOnlyFilter{})
	clone := scan.Clone()
	clone.AddColumn("stats", "score")
	clone.Limit = 0
	require.Len(t, scan.Columns, 1)
	require.Len(t, clone.Columns, 2)
	require.Equal(t, 3, scan.Limit)
}

func TestMutationBuilders(t *testing.T) {
	put := NewPut([]byte("row1")).AddColumn("info", "name", []byte("alice"))
	require.Equal(t, KindPut, put.Kind)
	require.Equal(t, "row1", string(put.Cells[0].Row))
	require.Equal(t, int64(4+4+4+5+8), put.Size())

	del := NewDelete([]byte("row1")).DeleteFamily("info").DeleteColumn("stats", "score")
	require.Equal(t, KindDelete, del.Kind)
	require.Empty(t, del.Cells[0].Qualifier)
	require.Equal(t, "delete", del.Kind.String())

	require.NoError(t, put.Validate())
	require.NoError(t, NewDelete([]byte("row1")).Validate())
	require.Equal(t, ErrNoColumns, NewPut([]byte("row1")).Validate())
	require.Equal(t, ErrEmptyRow, NewDelete(nil).Validate())
}

func TestResultHelpers(t *testing.T) {
	var nilResult *Result
	require.True(t, nilResult.IsEmpty())
	require.Nil(t, nilResult.Value("info", "name"))

	result := &Result{Row: []byte("r"), Cells: []*Cell{
		{Family: []byte("stats"), Qualifier: []byte("score"), Value: []byte("9")},
		{Family: []byte("info"), Qualifier: []byte("name"), Value: []byte("bob")},
		{Family: []byte("info"), Qualifier: []byte("age"), Value: []byte("7")},
	}}
	require.False(t, result.IsEmpty())
	require.Equal(t, []byte("bob"), result.Value("info", "name"))
	require.Nil(t, result.Value("info", "missing"))
	require.Equal(t, []string{"info", "stats"}, result.Families())
}

func TestFilters(t *testing.T) {
	result := &Result{Row: []byte("user-1"), Cells: []*Cell{
		{Family: []byte("info"), Qualifier: []byte("status"), Value: []byte("active")},
	}}
	require.NotNil(t, (&PrefixFilter{Prefix: []byte("user-")}).Apply(result))
	require.Nil(t, (&PrefixFilter{Prefix: []byte("order-")}).Apply(result))

	require.NotNil(t, (&ColumnValueFilter{Family: "info", Qualifier: "status", Value: []byte("active")}).Apply(result))
	require.Nil(t, (&ColumnValueFilter{Family: "info", Qualifier: "status", Value: []byte("gone")}).Apply(result))
	require.NotNil(t, (&ColumnValueFilter{Family: "info", Qualifier: "other", Value: []byte("x")}).Apply(result))
	require.Nil(t, (&ColumnValueFilter{Family: "info", Qualifier: "other", Value: []byte("x"),
		FilterIfMissing: true}).Apply(result))

	stripped := (&KeyOnlyFilter{}).Apply(result)
	require.Nil(t, stripped.Cells[0].Value)
	require.Equal(t, []byte("active"), result.Cells[0].Value)

	require.Nil(t, ApplyFilters(result, []Filter{&PrefixFilter{Prefix: []byte("x")}, &KeyOnlyFilter{}}))
	require.Nil(t, ApplyFilters(result, []Filter{&KeyOnlyFilter{}, &ColumnValueFilter{Family: "info",
		Qualifier: "status", Value: []byte("active")}}))
	require.Equal(t, result, ApplyFilters(result, nil))
}
