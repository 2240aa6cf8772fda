// Package observability monta o logger zap usado pelos binários.
package observability

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	bufferSize    = 256 << 10
	flushInterval = time.Second
)

// NewLogger cria o logger do servidor sobre stderr. format "json" (padrão)
// para produção, "console" para desenvolvimento.
func NewLogger(level, format string) (*zap.Logger, error) {
	return NewLoggerTo(zapcore.Lock(os.Stderr), level, format)
}

// NewLoggerTo escreve em out através de um buffer: o request não espera o
// destino do log. O buffer é descarregado a cada segundo, quando enche e em
// Logger.Sync, que os binários chamam ao sair.
func NewLoggerTo(out zapcore.WriteSyncer, level, format string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case "console":
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.Development())
	default:
		return nil, fmt.Errorf("observability: unknown log format %q", format)
	}

	// sem AddStacktrace: a stack de panic já vai como campo no log do normalizador
	ws := &zapcore.BufferedWriteSyncer{WS: out, Size: bufferSize, FlushInterval: flushInterval}
	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, opts...), nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("observability: unknown log level %q", s)
	}
}
