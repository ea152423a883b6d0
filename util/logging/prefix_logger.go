package logging

import (
	"fmt"
	"github.com/golang/glog"
)

type PrefixLogger struct {
	prefix string // The prefix string that is attached to every log statement.
	depth  int    // Extra call depth skipped when glog reports the caller.
}

// NewPrefixLogger returns a new instance of the prefix logger.
func NewPrefixLogger(prefix string) *PrefixLogger {
	logger := PrefixLogger{prefix: createPrefixStr(prefix)}
	return &logger
}

// NewPrefixLoggerWithParent returns a new instance of the prefix logger. It uses the prefix of the parent as well
// as the given prefix in every log statement. Makes traceability from logs a whole lot easier.
func NewPrefixLoggerWithParent(prefix string, parentLogger *PrefixLogger) *PrefixLogger {
	return NewPrefixLoggerWithParentAndDepth(prefix, parentLogger, 0)
}

// NewPrefixLoggerWithParentAndDepth is the same as NewPrefixLoggerWithParent but skips depth additional frames
// when reporting the caller. This is useful when the logger is handed to a library that wraps the calls.
func NewPrefixLoggerWithParentAndDepth(prefix string, parentLogger *PrefixLogger, depth int) *PrefixLogger {
	actualPrefix := createPrefixStr(prefix)
	if parentLogger != nil {
		if len(prefix) == 0 {
			actualPrefix = parentLogger.GetPrefix()
		} else {
			actualPrefix = parentLogger.GetPrefix() + " " + actualPrefix
		}
	}
	logger := PrefixLogger{prefix: actualPrefix, depth: depth}
	return &logger
}

func (logger *PrefixLogger) GetPrefix() string {
	return logger.prefix
}

func (logger *PrefixLogger) Infof(format string, args ...interface{}) {
	glog.InfoDepth(1+logger.depth, logger.format(format, args...))
}

func (logger *PrefixLogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1+logger.depth, logger.format(format, args...))
}

func (logger *PrefixLogger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1+logger.depth, logger.format(format, args...))
}

func (logger *PrefixLogger) Fatalf(format string, args ...interface{}) {
	glog.FatalDepth(1+logger.depth, logger.format(format, args...))
}

// Debugf logs at verbosity 2. Badger logs a lot at debug level so keep it out of the default output.
func (logger *PrefixLogger) Debugf(format string, args ...interface{}) {
	if glog.V(2) {
		glog.InfoDepth(1+logger.depth, logger.format(format, args...))
	}
}

func (logger *PrefixLogger) VInfof(v uint, format string, args ...interface{}) {
	if glog.V(glog.Level(v)) {
		glog.InfoDepth(1+logger.depth, logger.format(format, args...))
	}
}

func (logger *PrefixLogger) format(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", logger.prefix, fmt.Sprintf(format, args...))
}

func createPrefixStr(prefix string) string {
	return "{" + prefix + "}"
}
