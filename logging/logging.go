// Package logging defines the Logger interface used throughout the module.
// It also includes functions for setting the global log level and a per-package log level.
package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel      = zapcore.InfoLevel
	packageLevels = make(map[string]zapcore.Level)
	mut           sync.RWMutex
)

// ParseLevel parses a log level name.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case "panic":
		return zap.PanicLevel, nil
	case "fatal":
		return zap.FatalLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("invalid log level '%s'", level)
	}
}

// SetLogLevel sets the global log level.
func SetLogLevel(levelStr string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	mut.Lock()
	logLevel = level
	mut.Unlock()
	return nil
}

// SetPackageLogLevel sets a log level for a package, overriding the global level.
func SetPackageLogLevel(packageName, levelStr string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	mut.Lock()
	packageLevels[packageName] = level
	mut.Unlock()
	return nil
}

// SetPackageLogLevels parses a list of "package:level" strings and applies them.
func SetPackageLogLevels(packageLevels []string) error {
	for _, packageLevel := range packageLevels {
		pkg, level, ok := strings.Cut(packageLevel, ":")
		if !ok {
			return fmt.Errorf("package log level must be of the form package:level, got '%s'", packageLevel)
		}
		if err := SetPackageLogLevel(pkg, level); err != nil {
			return err
		}
	}
	return nil
}

// Logger is the logging interface used by the module. It is based on zap.SugaredLogger.
type Logger interface {
	Debug(args ...any)
	Debugf(template string, args ...any)
	Debugw(msg string, keysAndValues ...any)
	Info(args ...any)
	Infof(template string, args ...any)
	Infow(msg string, keysAndValues ...any)
	Warn(args ...any)
	Warnf(template string, args ...any)
	Warnw(msg string, keysAndValues ...any)
	Error(args ...any)
	Errorf(template string, args ...any)
	Errorw(msg string, keysAndValues ...any)
}

type wrapper struct {
	inner *zap.SugaredLogger
	level zap.AtomicLevel
	mut   sync.Mutex
}

// log updates the level according to the calling package and then calls fn.
func (wr *wrapper) log(fn func(l *zap.SugaredLogger)) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	fn(wr.inner)
}

func (wr *wrapper) updateLevel() {
	mut.RLock()
	defer mut.RUnlock()

	if len(packageLevels) > 0 {
		// skip updateLevel, log and the Logger method
		if _, file, _, ok := runtime.Caller(3); ok {
			for k, v := range packageLevels {
				if strings.Contains(file, k) {
					wr.level.SetLevel(v)
					return
				}
			}
		}
	}
	wr.level.SetLevel(logLevel)
}

func (wr *wrapper) Debug(args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Debug(args...) })
}

func (wr *wrapper) Debugf(template string, args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Debugf(template, args...) })
}

func (wr *wrapper) Debugw(msg string, keysAndValues ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Debugw(msg, keysAndValues...) })
}

func (wr *wrapper) Info(args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Info(args...) })
}

func (wr *wrapper) Infof(template string, args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Infof(template, args...) })
}

func (wr *wrapper) Infow(msg string, keysAndValues ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Infow(msg, keysAndValues...) })
}

func (wr *wrapper) Warn(args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Warn(args...) })
}

func (wr *wrapper) Warnf(template string, args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Warnf(template, args...) })
}

func (wr *wrapper) Warnw(msg string, keysAndValues ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Warnw(msg, keysAndValues...) })
}

func (wr *wrapper) Error(args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Error(args...) })
}

func (wr *wrapper) Errorf(template string, args ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Errorf(template, args...) })
}

func (wr *wrapper) Errorw(msg string, keysAndValues ...any) {
	wr.log(func(l *zap.SugaredLogger) { l.Errorw(msg, keysAndValues...) })
}

// New returns a new logger for stderr with the given name.
// The output is JSON if the FBAS_LOG_TYPE environment variable is "json".
func New(name string) Logger {
	var config zap.Config
	if strings.ToLower(os.Getenv("FBAS_LOG_TYPE")) == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	mut.RLock()
	config.Level.SetLevel(logLevel)
	mut.RUnlock()
	// production config samples; every engine failure should be visible
	config.Sampling = nil
	l, err := config.Build(zap.AddCallerSkip(3))
	if err != nil {
		panic(err)
	}
	return &wrapper{inner: l.Sugar().Named(name), level: config.Level}
}

// NewWithDest returns a new logger for the given destination with the given name.
func NewWithDest(dest io.Writer, name string) Logger {
	mut.RLock()
	atom := zap.NewAtomicLevelAt(logLevel)
	mut.RUnlock()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(dest), atom)
	l := zap.New(core, zap.AddCallerSkip(3))
	return &wrapper{inner: l.Sugar().Named(name), level: atom}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &wrapper{inner: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}
