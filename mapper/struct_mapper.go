package mapper

import (
	"errors"
	"fmt"
	"hbasekit/store"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

const (
	// TagName is the struct tag holding the qualifier a field maps to.
	TagName = "hbase"
	// RowKeyTag marks the field that receives the row key.
	RowKeyTag = "rowkey"
)

var ErrNotStruct = errors.New("ErrNotStruct: value must be a struct or a pointer to a struct")

// Struct returns a mapper that decodes the qualifiers of a row into T. Values are converted from their string
// form, so "42" fills an int field. Fields are matched by the hbase tag, or by name when there is no tag. The
// field tagged hbase:"rowkey" receives the row key.
func Struct[T any]() RowMapper[T] {
	return func(result *store.Result, rowNum int) (T, error) {
		var value T
		input, err := Objects(result, rowNum)
		if err != nil {
			return value, err
		}
		if _, ok := input[RowKeyTag]; !ok {
			input[RowKeyTag] = string(result.Row)
		}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &value,
			TagName:          TagName,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		})
		if err != nil {
			return value, err
		}
		if err := decoder.Decode(input); err != nil {
			return value, fmt.Errorf("unable to map row %s: %w", result.Row, err)
		}
		return value, nil
	}
}

// ToMap converts a struct (or a map) into qualifier -> value using the hbase tag. The row key field is left
// out.
func ToMap(value interface{}) (map[string]interface{}, error) {
	kind := reflect.Indirect(reflect.ValueOf(value)).Kind()
	if kind != reflect.Struct && kind != reflect.Map {
		return nil, ErrNotStruct
	}
	out := make(map[string]interface{})
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: TagName,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(value); err != nil {
		return nil, err
	}
	delete(out, RowKeyTag)
	return out, nil
}

// ToPut builds a put of every non nil field of value into family. []byte values are stored as is, everything
// else in its fmt %v form.
func ToPut(row []byte, family string, value interface{}) (*store.Mutation, error) {
	if len(row) == 0 {
		return nil, store.ErrEmptyRow
	}
	fields, err := ToMap(value)
	if err != nil {
		return nil, err
	}
	put := store.NewPut(row)
	for _, qualifier := range sortedKeys(fields) {
		switch typed := fields[qualifier].(type) {
		case nil:
			continue
		case []byte:
			put.AddColumn(family, qualifier, typed)
		case string:
			put.AddColumn(family, qualifier, []byte(typed))
		default:
			put.AddColumn(family, qualifier, []byte(fmt.Sprintf("%v", typed)))
		}
	}
	return put, nil
}
