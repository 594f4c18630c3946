package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	Env        string `env:"APP_ENV" envDefault:"development"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/path/to.sock)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	JWTSecret string `env:"JWT_SECRET,required"`

	// RedisAddr is optional; when empty the order snapshot cache is disabled
	// and detail reads go straight to the database.
	RedisAddr string `env:"REDIS_ADDR"`

	CancelWindow         time.Duration `env:"CANCEL_WINDOW" envDefault:"30m"`
	PenaltySweepInterval time.Duration `env:"PENALTY_SWEEP_INTERVAL" envDefault:"1h"`
	PenaltyDailyPercent  float64       `env:"PENALTY_DAILY_PERCENT" envDefault:"0.5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
