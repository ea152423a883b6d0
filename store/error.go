package store

import "errors"

var (
	// ErrTableNotFound is returned when the table does not exist in the store.
	ErrTableNotFound = errors.New("ErrTableNotFound: table not found")

	// ErrTableExists is returned when creating a table that already exists.
	ErrTableExists = errors.New("ErrTableExists: table already exists")

	// ErrInvalidTableName is returned when the table name is empty or contains illegal characters.
	ErrInvalidTableName = errors.New("ErrInvalidTableName: invalid table name")

	// ErrInvalidFamilyName is returned when a family name has characters other than letters, digits and underscores.
	ErrInvalidFamilyName = errors.New("ErrInvalidFamilyName: invalid column family name")

	// ErrFamilyNotFound is returned when a mutation or a column selection names a family the table does not have.
	ErrFamilyNotFound = errors.New("ErrFamilyNotFound: column family not found")

	// ErrEmptyRow is returned when a row key is required but none was given.
	ErrEmptyRow = errors.New("ErrEmptyRow: row key must not be empty")

	// ErrNoColumns is returned when a put carries no cells.
	ErrNoColumns = errors.New("ErrNoColumns: put must carry at least one column")

	// ErrClosed is returned when the connection or table handle is closed.
	ErrClosed = errors.New("ErrClosed: connection is closed")

	// ErrStore is returned when the backing store fails.
	ErrStore = errors.New("ErrStore: backing store error")
)
