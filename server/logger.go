package server

import (
	"tileworld/logging"
)

// Log is the process wide logger. It discards everything until InitLogger
// is called, so packages and tests can log unconditionally.
var Log = logging.Nop()

// InitLogger points Log at a rotating file, or at stderr when filePath is
// empty. level is one of debug|info|warn|error.
func InitLogger(filePath, level string) error {
	l, err := logging.New(filePath, level)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// SyncLogger flushes buffered entries.
func SyncLogger() {
	_ = Log.Sync()
}
