package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"

	"github.com/recipebook/internal/config"
)

const (
	logFileMaxSize    = 100 // megabytes
	logFileMaxBackups = 3
	logFileMaxAge     = 28 // days
)

// New builds the application logger. Console output always goes to stderr;
// when LOG_FILE is set, JSON entries are also written to a rotating file.
func New(cfg config.AppConfig) *zap.Logger {
	level := ParseLevel(cfg.LogLevel)

	consoleEncoderCfg := zap.NewProductionEncoderConfig()
	consoleEncoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	consoleEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)

	if strings.TrimSpace(cfg.LogFile) == "" {
		return zap.New(consoleCore)
	}

	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	fileEncoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderCfg),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logFileMaxSize,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAge,
		}),
		level,
	)

	return zap.New(zapcore.NewTee(consoleCore, fileCore))
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// ParseLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLevel(value string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.TrimSpace(value))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Gorm adapts the application logger for gorm. SQL statements are only
// traced at debug level.
func Gorm(logger *zap.Logger, level zapcore.Level) zapgorm2.Logger {
	gormLog := zapgorm2.New(logger.Named("gorm"))
	gormLog.IgnoreRecordNotFoundError = true
	switch {
	case level <= zapcore.DebugLevel:
		gormLog.LogLevel = gormlogger.Info
	case level <= zapcore.WarnLevel:
		gormLog.LogLevel = gormlogger.Warn
	default:
		gormLog.LogLevel = gormlogger.Error
	}
	return gormLog
}
