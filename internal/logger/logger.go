package logger

import "go.uber.org/zap"

// Log is the process-wide logger. It discards everything until Init is called.
var Log = zap.NewNop()

// Init installs a development logger when debug is set, otherwise a
// production JSON logger.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
