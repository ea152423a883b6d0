package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixLogger(t *testing.T) {
	// The output should be seen on the screen.
	logger := NewPrefixLogger("template")
	logger2 := NewPrefixLoggerWithParent("users", logger)
	require.Equal(t, "{template}", logger.GetPrefix())
	require.Equal(t, "{template} {users}", logger2.GetPrefix())

	logger.Infof("Hello World!")
	logger2.Infof("Hello World: %d", 2)
	logger.Warningf("Hello World: %s", "scan")
	logger2.Warningf("Hello World!")
	logger.Errorf("Hello World: %d", 2)
	logger2.Errorf("Hello World: %s", "get")
	logger.VInfof(0, "Hello World!")
	logger2.VInfof(2, "Hello World: %d", 2)
	logger2.Debugf("Hello World: %s", "badger")
}

func TestPrefixLoggerEmptyChildPrefix(t *testing.T) {
	parent := NewPrefixLogger("badger_store")
	child := NewPrefixLoggerWithParentAndDepth("", parent, 1)
	require.Equal(t, parent.GetPrefix(), child.GetPrefix())

	orphan := NewPrefixLoggerWithParentAndDepth("orphan", nil, 0)
	require.Equal(t, "{orphan}", orphan.GetPrefix())
}
