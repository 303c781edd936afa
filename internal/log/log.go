package log

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	encConfig := zap.NewDevelopmentEncoderConfig()
	encConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encConfig.EncodeCaller = nil
	encConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.StampMicro))
	}

	encoder := zapcore.NewConsoleEncoder(encConfig)

	stdout, closer, err := zap.Open("stdout")
	if err != nil {
		closer()
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}

	stderr, closer, err := zap.Open("stderr")
	if err != nil {
		closer()
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}

	if os.Getenv("DEBUG") != "" {
		level.SetLevel(zapcore.DebugLevel)
	}

	core := zapcore.NewCore(encoder, stdout, level)
	logger = zap.New(core, zap.ErrorOutput(stderr))
}

// SetDebug switches the shared logger between info and debug level.
func SetDebug(debug bool) {
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// S returns a *[zap.SugaredLogger].
func S() *zap.SugaredLogger {
	return logger.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = logger.Sync()
}
