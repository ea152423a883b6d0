package badger_store

import (
	"bytes"
	"errors"
	"unicode"
)

// Keys are laid out as <kind><table><row><family><qualifier>. Every component is escaped so that the
// encoding sorts exactly like the raw bytes: 0x00 becomes 0x00 0xFF and each component ends with 0x00 0x01.
// This keeps the cells of a row contiguous and rows in row-key order.
const (
	kDataKeyKind byte = 'd'
	kMetaKeyKind byte = 'm'
	kEscapeByte  byte = 0x00
	kEscapedNull byte = 0xFF
	kTerminator  byte = 0x01
	kUpperBound  byte = 0x02
)

var errMalformedKey = errors.New("malformed key")

// appendEscaped appends the escaped body of b without the terminator.
func appendEscaped(dst []byte, b []byte) []byte {
	for _, c := range b {
		if c == kEscapeByte {
			dst = append(dst, kEscapeByte, kEscapedNull)
			continue
		}
		dst = append(dst, c)
	}
	return dst
}

// appendComponent appends the escaped and terminated component.
func appendComponent(dst []byte, b []byte) []byte {
	return append(appendEscaped(dst, b), kEscapeByte, kTerminator)
}

// readComponent decodes the first component of key and returns it along with the remaining bytes.
func readComponent(key []byte) (component []byte, rest []byte, err error) {
	component = make([]byte, 0, len(key))
	for ii := 0; ii < len(key); ii++ {
		if key[ii] != kEscapeByte {
			component = append(component, key[ii])
			continue
		}
		if ii+1 >= len(key) {
			return nil, nil, errMalformedKey
		}
		switch key[ii+1] {
		case kEscapedNull:
			component = append(component, kEscapeByte)
			ii++
		case kTerminator:
			return component, key[ii+2:], nil
		default:
			return nil, nil, errMalformedKey
		}
	}
	return nil, nil, errMalformedKey
}

// tablePrefix returns the prefix shared by every cell of the table.
func tablePrefix(table string) []byte {
	return appendComponent([]byte{kDataKeyKind}, []byte(table))
}

// tableUpperBound returns a key that sorts after every cell of the table with the given prefix and before the
// next table.
func tableUpperBound(prefix []byte) []byte {
	key := append([]byte(nil), prefix...)
	key[len(key)-1] = kUpperBound
	return key
}

// rowSeekKey returns the smallest key of any row >= row.
func rowSeekKey(prefix []byte, row []byte) []byte {
	return appendEscaped(append([]byte(nil), prefix...), row)
}

// rowPrefix returns the prefix shared by every cell of the row.
func rowPrefix(prefix []byte, row []byte) []byte {
	return appendComponent(append([]byte(nil), prefix...), row)
}

// rowUpperBound returns a key that sorts after every cell of the row and before every greater row.
func rowUpperBound(prefix []byte, row []byte) []byte {
	key := rowPrefix(prefix, row)
	key[len(key)-1] = kUpperBound
	return key
}

// familyPrefix returns the prefix shared by every cell of the family in the row.
func familyPrefix(prefix []byte, row []byte, family []byte) []byte {
	return appendComponent(rowPrefix(prefix, row), family)
}

// cellKey builds the full key of a cell.
func cellKey(prefix []byte, row []byte, family []byte, qualifier []byte) []byte {
	return appendComponent(familyPrefix(prefix, row, family), qualifier)
}

// parseCellKey extracts row, family and qualifier from a full data key of the table with the given prefix.
func parseCellKey(prefix []byte, key []byte) (row []byte, family []byte, qualifier []byte, err error) {
	if !bytes.HasPrefix(key, prefix) {
		return nil, nil, nil, errMalformedKey
	}
	rest := key[len(prefix):]
	if row, rest, err = readComponent(rest); err != nil {
		return
	}
	if family, rest, err = readComponent(rest); err != nil {
		return
	}
	if qualifier, rest, err = readComponent(rest); err != nil {
		return
	}
	if len(rest) != 0 {
		err = errMalformedKey
	}
	return
}

// metaKey returns the key holding the table's family list.
func metaKey(table string) []byte {
	return append([]byte{kMetaKeyKind}, []byte(table)...)
}

// encodeFamilies serializes the family list of a table. Family names cannot contain commas.
func encodeFamilies(families []string) []byte {
	var buf bytes.Buffer
	for ii, family := range families {
		if ii > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(family)
	}
	return buf.Bytes()
}

func decodeFamilies(val []byte) []string {
	if len(val) == 0 {
		return nil
	}
	var families []string
	for _, family := range bytes.Split(val, []byte(",")) {
		families = append(families, string(family))
	}
	return families
}

// isFamilyNameValid checks that the family name only has letters, digits and underscores.
func isFamilyNameValid(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, cc := range name {
		if unicode.IsDigit(cc) || unicode.IsLetter(cc) || cc == '_' {
			continue
		}
		return false
	}
	return true
}

// isTableNameValid checks that the table name only has letters, digits, underscores, dashes, dots and a
// namespace colon.
func isTableNameValid(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, cc := range name {
		if unicode.IsDigit(cc) || unicode.IsLetter(cc) || cc == '_' || cc == '-' || cc == '.' || cc == ':' {
			continue
		}
		return false
	}
	return true
}
