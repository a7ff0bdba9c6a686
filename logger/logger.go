// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logger builds the node and CLI loggers: a console core on stderr
// and a rotating file core per named logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level        string `yaml:"level"`
	DisplayLevel string `yaml:"displayLevel"`

	// Format is one of auto, plain, colors or json.
	Format string `yaml:"format"`

	// Directory holds one <name>.log file per logger.
	Directory string `yaml:"directory"`

	MaxSize  int  `yaml:"maxSize"` // megabytes
	MaxAge   int  `yaml:"maxAge"`  // days
	MaxFiles int  `yaml:"maxFiles"`
	Compress bool `yaml:"compress"`

	// DisableDisplay mutes the console core. The file core still writes.
	DisableDisplay bool `yaml:"disableDisplay"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:        "info",
		DisplayLevel: "info",
		Format:       "auto",
		Directory:    "logs",
		MaxSize:      8,
		MaxAge:       7,
		MaxFiles:     4,
	}
}

type logWrapper struct {
	logger       logging.Logger
	displayLevel zap.AtomicLevel
	logLevel     zap.AtomicLevel
}

type Factory struct {
	level        logging.Level
	displayLevel logging.Level
	format       logging.Format
	cfg          Config

	lock    sync.Mutex
	loggers map[string]logWrapper
}

func NewFactory(cfg Config) (*Factory, error) {
	level, err := logging.ToLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	displayLevel, err := logging.ToLevel(cfg.DisplayLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ToFormat(cfg.Format, os.Stderr.Fd())
	if err != nil {
		return nil, err
	}
	return &Factory{
		level:        level,
		displayLevel: displayLevel,
		format:       format,
		cfg:          cfg,
		loggers:      make(map[string]logWrapper),
	}, nil
}

// Make returns a new logger writing to <Directory>/<name>.log. Names are
// unique per factory.
func (f *Factory) Make(name string) (logging.Logger, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.loggers == nil {
		return nil, ErrClosed
	}
	if _, ok := f.loggers[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLogger, name)
	}

	var consoleWriter io.WriteCloser = os.Stderr
	if f.cfg.DisableDisplay {
		consoleWriter = discardWriteCloser{io.Discard}
	}
	consoleCore := logging.NewWrappedCore(f.displayLevel, consoleWriter, f.format.ConsoleEncoder())
	consoleCore.WriterDisabled = f.cfg.DisableDisplay

	rw := &lumberjack.Logger{
		Filename:   filepath.Join(f.cfg.Directory, name+".log"),
		MaxSize:    f.cfg.MaxSize,
		MaxAge:     f.cfg.MaxAge,
		MaxBackups: f.cfg.MaxFiles,
		Compress:   f.cfg.Compress,
	}
	fileCore := logging.NewWrappedCore(f.level, rw, f.format.FileEncoder())

	l := logging.NewLogger(f.format.WrapPrefix(name), consoleCore, fileCore)
	f.loggers[name] = logWrapper{
		logger:       l,
		displayLevel: consoleCore.AtomicLevel,
		logLevel:     fileCore.AtomicLevel,
	}
	return l, nil
}

// SetLevels changes the levels of the logger [name] while it runs.
func (f *Factory) SetLevels(name string, level, displayLevel logging.Level) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	lw, ok := f.loggers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLogger, name)
	}
	lw.logLevel.SetLevel(zapcore.Level(level))
	lw.displayLevel.SetLevel(zapcore.Level(displayLevel))
	return nil
}

// Close stops every logger made by the factory.
func (f *Factory) Close() {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, lw := range f.loggers {
		lw.logger.Stop()
	}
	f.loggers = nil
}

type discardWriteCloser struct {
	io.Writer
}

func (discardWriteCloser) Close() error {
	return nil
}
