package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger 在读取配置之前使用的控制台日志器，revision 子命令也使用它
var bootstrapLogger = newBootstrapLogger(os.Getenv("DEBUG") != "")

// newBootstrapLogger writes colored console output to stderr, so command
// output on stdout stays machine readable.
func newBootstrapLogger(debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = !debug
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	lg, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lg
}
