package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

func NewLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
