package uzap

import (
	"os"

	"go.uber.org/zap"
)

type Config struct {
	Dev   bool
	Level string
}

func NewConfig() (Config, error) {
	c := Config{}

	if os.Getenv("DEV_MODE") != "" {
		c.Dev = true
	}

	c.Level = os.Getenv("LOG_LEVEL")

	return c, nil
}

func New(c Config) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.Dev {
		cfg = zap.NewDevelopmentConfig()
	}

	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	// Handlers log through zap.L().
	zap.ReplaceGlobals(l)

	return l, nil
}
