// Package logcfg configures the process-wide logrus logger.
package logcfg

import (
	"fmt"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"path"
	"runtime"
)

// RunLoggerConfig sets the logrus level, the caller-aware text format and
// duplicates every entry to a rotating log file.
// Arguments:
//   - logLevel: logrus level name (e.g. debug, info).
//   - fileName: path of the rotating log file.
//
// Returns an error if the level can't be parsed.
func RunLoggerConfig(logLevel, fileName string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", logLevel, err)
	}
	logrus.SetLevel(level)
	logrus.SetReportCaller(true)

	logrus.SetFormatter(&logrus.TextFormatter{
		CallerPrettyfier: func(f *runtime.Frame) (function string, file string) {
			_, filename := path.Split(f.File)
			filename = fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
			return "", filename
		},
	})
	mw := io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     30,
	})
	logrus.SetOutput(mw)
	return nil
}
