// Package badger_store implements the store capabilities on an embedded badger database. It backs local
// development, the CLI's badger mode and the tests of the packages built on top of store.
package badger_store

import (
	"context"
	"hbasekit/store"
	"hbasekit/util/logging"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v2"
)

// Connection is a store.Connection on top of a badger DB. Table handles share the DB.
type Connection struct {
	db      *badger.DB
	rootDir string
	logger  *logging.PrefixLogger
	mu      sync.RWMutex
	closed  bool
}

// Open opens (or creates) the badger database under rootDir.
func Open(rootDir string, opts badger.Options) (*Connection, error) {
	logger := logging.NewPrefixLogger("badger_store")
	return OpenWithLogger(rootDir, logger, opts)
}

// OpenWithLogger is the same as Open but logs with the given logger.
func OpenWithLogger(rootDir string, logger *logging.PrefixLogger, opts badger.Options) (*Connection, error) {
	conn := &Connection{rootDir: rootDir, logger: logger}
	if !opts.InMemory {
		if err := os.MkdirAll(rootDir, 0774); err != nil {
			logger.Errorf("Unable to create directory: %s for badger store due to err: %v", rootDir, err)
			return nil, err
		}
	}
	opts.Logger = logging.NewPrefixLoggerWithParentAndDepth("", logger, 1)
	logger.Infof("Initializing badger store located at: %s", rootDir)
	db, err := badger.Open(opts)
	if err != nil {
		logger.Errorf("Unable to open badger store due to err: %s", err.Error())
		return nil, err
	}
	conn.db = db
	return conn, nil
}

// DefaultOptions returns the badger options used by NewConnector.
func DefaultOptions(rootDir string) badger.Options {
	opts := badger.DefaultOptions(rootDir)
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.SyncWrites = true
	opts.VerifyValueChecksum = true
	return opts
}

// NewConnector returns a connector that opens the badger database under rootDir. The database is opened once
// and the same connection is returned by every call until it is closed.
func NewConnector(rootDir string) store.Connector {
	var mu sync.Mutex
	var conn *Connection
	return func(ctx context.Context) (store.Connection, error) {
		mu.Lock()
		defer mu.Unlock()
		if conn != nil && !conn.isClosed() {
			return conn, nil
		}
		var err error
		conn, err = Open(rootDir, DefaultOptions(rootDir))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Table returns a handle to an existing table.
func (conn *Connection) Table(ctx context.Context, name string) (store.Table, error) {
	if conn.isClosed() {
		return nil, store.ErrClosed
	}
	families, err := conn.families(name)
	if err != nil {
		return nil, err
	}
	return newTable(conn, name, families), nil
}

func (conn *Connection) Admin() store.Admin {
	return &admin{conn: conn}
}

// Close the DB.
func (conn *Connection) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return nil
	}
	conn.logger.Infof("Closing badger store located at: %s", conn.rootDir)
	err := conn.db.Close()
	conn.closed = true
	return err
}

func (conn *Connection) isClosed() bool {
	conn.mu.RLock()
	defer conn.mu.RUnlock()
	return conn.closed
}

// families loads the family list of the table.
func (conn *Connection) families(name string) ([]string, error) {
	var families []string
	err := conn.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return store.ErrTableNotFound
			}
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		families = decodeFamilies(val)
		return nil
	})
	if err != nil && err != store.ErrTableNotFound {
		conn.logger.Errorf("Unable to load table: %s due to err: %s", name, err.Error())
		return nil, store.ErrStore
	}
	return families, err
}

/******************************************************* ADMIN ********************************************************/
type admin struct {
	conn *Connection
}

func (adm *admin) CreateTable(ctx context.Context, name string, families []string) error {
	if adm.conn.isClosed() {
		return store.ErrClosed
	}
	if !isTableNameValid(name) || len(families) == 0 {
		return store.ErrInvalidTableName
	}
	for _, family := range families {
		if !isFamilyNameValid(family) {
			return store.ErrInvalidFamilyName
		}
	}
	sorted := append([]string(nil), families...)
	sort.Strings(sorted)
	err := adm.conn.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(name)); err == nil {
			return store.ErrTableExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(metaKey(name), encodeFamilies(sorted))
	})
	if err != nil {
		if err == store.ErrTableExists {
			return err
		}
		adm.conn.logger.Errorf("Unable to create table: %s due to err: %s", name, err.Error())
		return store.ErrStore
	}
	adm.conn.logger.Infof("Created table: %s with families: %v", name, sorted)
	return nil
}

// DeleteTable removes the table and all of its cells.
func (adm *admin) DeleteTable(ctx context.Context, name string) error {
	if adm.conn.isClosed() {
		return store.ErrClosed
	}
	if _, err := adm.conn.families(name); err != nil {
		return err
	}
	prefix := tablePrefix(name)
	txn := adm.conn.db.NewTransaction(true)
	defer func() { txn.Discard() }()
	if err := txn.Delete(metaKey(name)); err != nil {
		return store.ErrStore
	}
	keys, err := collectKeys(adm.conn.db, prefix)
	if err != nil {
		adm.conn.logger.Errorf("Unable to list keys of table: %s due to err: %s", name, err.Error())
		return store.ErrStore
	}
	for _, key := range keys {
		if err := txn.Delete(key); err == badger.ErrTxnTooBig {
			if cerr := txn.Commit(); cerr != nil {
				return store.ErrStore
			}
			txn = adm.conn.db.NewTransaction(true)
			if err := txn.Delete(key); err != nil {
				return store.ErrStore
			}
		} else if err != nil {
			return store.ErrStore
		}
	}
	if err := txn.Commit(); err != nil {
		adm.conn.logger.Errorf("Unable to commit delete of table: %s due to err: %s", name, err.Error())
		return store.ErrStore
	}
	adm.conn.logger.Infof("Deleted table: %s, removed %d cells", name, len(keys))
	return nil
}

func (adm *admin) TableExists(ctx context.Context, name string) (bool, error) {
	if adm.conn.isClosed() {
		return false, store.ErrClosed
	}
	_, err := adm.conn.families(name)
	if err == store.ErrTableNotFound {
		return false, nil
	}
	return err == nil, err
}

// collectKeys returns every key with the given prefix.
func collectKeys(db *badger.DB, prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		itr := txn.NewIterator(opts)
		defer itr.Close()
		for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
			keys = append(keys, itr.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}
