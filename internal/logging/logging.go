// Package logging builds the zap logger shared by the CLI and the dashboard.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development logger in debug mode. Otherwise it returns a
// console logger that only reports warnings and errors on stderr, plus
// errorLog when it is set.
func New(debug bool, errorLog string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.DisableStacktrace = true
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		if errorLog != "" {
			cfg.OutputPaths = append(cfg.OutputPaths, errorLog)
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
