package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely a component logs.
type Options struct {
	Dir    string
	Level  string
	Stdout io.Writer
}

// New creates a logger that writes to <dir>/<component>.log (rotated) and to stdout,
// and returns it with a cleanup that closes the log file.
func New(component string, opts Options) (*logrus.Entry, func(), error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, component+".log"),
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(io.MultiWriter(opts.Stdout, file))

	return logger.WithField("prefix", component), func() { _ = file.Close() }, nil
}
