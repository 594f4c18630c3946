package logging

import (
	"go.uber.org/zap"
)

// New builds the process-wide logger. Development mode gets human-readable
// console output; anything else gets production JSON.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
