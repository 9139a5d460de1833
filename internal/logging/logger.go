package logging

import (
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
)

// maxDumpBytes 帧十六进制转储上限，超出部分截断
const maxDumpBytes = 256

// ParseLevel 日志级别字符串 -> zapcore.Level，未知值按 info 处理
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     func(t time.Time, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString(t.Format(time.RFC3339Nano)) },
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// InitLogger 初始化 zap 日志器：标准输出 + lumberjack 滚动文件
// 未配置文件名时只写标准输出
func InitLogger(cfg cfgpkg.LoggingConfig) (*zap.Logger, error) {
	var file io.Writer
	if cfg.File.Filename != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
	}
	return newLogger(cfg, os.Stdout, file), nil
}

func newLogger(cfg cfgpkg.LoggingConfig, stdout, file io.Writer) *zap.Logger {
	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(stdout)}
	if file != nil {
		syncers = append(syncers, zapcore.AddSync(file))
	}
	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), ParseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller())
}

// HexDump 帧字节转储字段，过长时截断并记录原长
func HexDump(key string, b []byte) zap.Field {
	if len(b) > maxDumpBytes {
		return zap.String(key, hex.EncodeToString(b[:maxDumpBytes])+"...("+strconv.Itoa(len(b))+" bytes)")
	}
	return zap.String(key, hex.EncodeToString(b))
}
