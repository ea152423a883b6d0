package testutil

import (
	"fmt"
	"github.com/golang/glog"
	"os"
	"path/filepath"
	"testing"
)

// CreateTestDir creates a fresh directory for the test under the system temp dir.
func CreateTestDir(t *testing.T, testName string) string {
	dataDir := filepath.Join(os.TempDir(), "hbasekit", testName)
	err := os.RemoveAll(dataDir)
	if err != nil {
		t.Fatalf("Unable to delete test directory: %s", dataDir)
	}
	err = os.MkdirAll(dataDir, 0774)
	if err != nil {
		t.Fatalf("Unable to create test dir: %s", dataDir)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dataDir)
	})
	return dataDir
}

func LogTestMarker(testName string) {
	glog.InfoDepth(1, fmt.Sprintf("\n\n============================================================ %s "+
		"============================================================\n\n", testName))
}
