package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// _base reports its callers, _default skips the wrappers of this package
	_base    *zap.SugaredLogger
	_default *zap.SugaredLogger
)

// configure a default logger
func init() {
	ConfigureLogger(Config{DisableStacktrace: true})
}

type Config struct {
	Level             string   `mapstructure:"level"`
	Development       bool     `mapstructure:"development"`
	DisableStacktrace bool     `mapstructure:"disableStacktrace"`
	Encoding          string   `mapstructure:"encoding"`
	OutputPaths       []string `mapstructure:"outputPaths"`
	ErrorOutputPaths  []string `mapstructure:"errorOutputPaths"`
}

func (c *Config) applyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Encoding == "" {
		c.Encoding = "console"
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
	if len(c.ErrorOutputPaths) == 0 {
		c.ErrorOutputPaths = []string{"stderr"}
	}
}

// ConfigureLogger builds the global zap logger from the config and returns it.
func ConfigureLogger(c Config) *zap.SugaredLogger {
	c.applyDefaults()
	lvl := zapcore.InfoLevel
	_ = lvl.UnmarshalText([]byte(c.Level))

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if !c.Development {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: c.Development,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:          c.Encoding,
		EncoderConfig:     encoderConfig,
		DisableStacktrace: c.DisableStacktrace,
		OutputPaths:       c.OutputPaths,
		ErrorOutputPaths:  c.ErrorOutputPaths,
	}.Build()
	if err != nil {
		panic(err)
	}

	setLogger(logger)
	return _default
}

func setLogger(logger *zap.Logger) {
	_base = logger.Sugar()
	_default = logger.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Default returns the default global logger.
func Default() *zap.SugaredLogger {
	return _default
}

// Base returns the global logger for direct calls, e.g. loggers kept in
// a context or a struct.
func Base() *zap.SugaredLogger {
	return _base
}

// Named returns a child logger for a component. It is called directly, so it
// is built without the caller skip of the package functions.
func Named(name string) *zap.SugaredLogger {
	return _base.Named(name)
}

func Debug(args ...interface{}) {
	Default().Debug(args...)
}

func Info(args ...interface{}) {
	Default().Info(args...)
}

func Warn(args ...interface{}) {
	Default().Warn(args...)
}

func Error(args ...interface{}) {
	Default().Error(args...)
}

// Fatal logs a message, then calls os.Exit.
func Fatal(args ...interface{}) {
	Default().Fatal(args...)
}

func Debugf(template string, args ...interface{}) {
	Default().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	Default().Infof(template, args...)
}

func Errorf(template string, args ...interface{}) {
	Default().Errorf(template, args...)
}

// Debugw logs a message with some additional context. The variadic key-value
// pairs are treated as they are in With.
func Debugw(msg string, keysAndValues ...interface{}) {
	Default().Debugw(msg, keysAndValues...)
}

// Infow logs a message with some additional context. The variadic key-value
// pairs are treated as they are in With.
func Infow(msg string, keysAndValues ...interface{}) {
	Default().Infow(msg, keysAndValues...)
}

// Warnw logs a message with some additional context. The variadic key-value
// pairs are treated as they are in With.
func Warnw(msg string, keysAndValues ...interface{}) {
	Default().Warnw(msg, keysAndValues...)
}

// Errorw logs a message with some additional context. The variadic key-value
// pairs are treated as they are in With.
func Errorw(msg string, keysAndValues ...interface{}) {
	Default().Errorw(msg, keysAndValues...)
}

// With adds a variadic number of fields to the logging context.
func With(args ...interface{}) *zap.SugaredLogger {
	return _base.With(args...)
}
