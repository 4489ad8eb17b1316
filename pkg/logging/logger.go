package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局 Logger 实例，未初始化前为 Nop，保证测试和工具代码可直接使用
var Logger = zap.NewNop()

// AtomicLevel 全局共享日志级别
var AtomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// Options 日志配置
type Options struct {
	Level      string
	Path       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool

	// Console 是否同时输出到 stdout
	Console bool
}

// OptionsFromConfig 从 viper 读取 log.* 配置
func OptionsFromConfig() Options {
	return Options{
		Level:      viper.GetString("log.level"),
		Path:       viper.GetString("log.path"),
		MaxSize:    viper.GetInt("log.max_size"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAge:     viper.GetInt("log.max_age"),
		Compress:   viper.GetBool("log.compress"),
		Console:    viper.GetBool("log.console"),
	}
}

func (o *Options) applyDefaults() {
	if o.Level == "" {
		o.Level = "info"
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 10 // MB
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 5
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 7 // 天
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006/01/02 - 15:04:05"))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewLogger 按配置构建 zap.Logger：控制台 + lumberjack 轮转文件
func NewLogger(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	opts.applyDefaults()

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zap.InfoLevel
	}
	atomicLevel := zap.NewAtomicLevelAt(level)
	encoder := zapcore.NewJSONEncoder(encoderConfig())

	var cores []zapcore.Core
	if opts.Console || opts.Path == "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atomicLevel))
	}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), os.ModePerm); err != nil {
			return nil, atomicLevel, fmt.Errorf("create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSize,    // 单位：MB
			MaxBackups: opts.MaxBackups, // 保留多少个备份文件
			MaxAge:     opts.MaxAge,     // 保留多少天
			Compress:   opts.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), atomicLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), atomicLevel, nil
}

// InitLoggerFromConfig 初始化全局 Logger 并替换 zap 全局实例
func InitLoggerFromConfig() error {
	logger, level, err := NewLogger(OptionsFromConfig())
	if err != nil {
		return err
	}

	Logger = logger
	AtomicLevel = level
	zap.ReplaceGlobals(Logger)

	Logger.Info("InitLoggerFromConfig finished", zap.String("level", level.String()))
	return nil
}
