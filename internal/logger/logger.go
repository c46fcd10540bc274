package logger

import (
	"go.uber.org/zap"
)

// Init sets the process-wide zap logger. Anything outside local development
// gets the production config (JSON, sampling).
func Init(environment string) error {
	var (
		logger *zap.Logger
		err    error
	)

	switch environment {
	case "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)

	return nil
}
