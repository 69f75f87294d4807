// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every knob the server reads from the environment.
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	MongoURI       string        `env:"MONGODB_URI" envDefault:"mongodb://127.0.0.1:27017"`
	MongoDatabase  string        `env:"MONGODB_DATABASE" envDefault:"vecindario"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`
	CloudinaryURL  string        `env:"CLOUDINARY_URL"`
	RedisURL       string        `env:"REDIS_URL"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	VAPIDPublic    string        `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivate   string        `env:"VAPID_PRIVATE_KEY"`
	VAPIDContact   string        `env:"VAPID_CONTACT" envDefault:"mailto:administracion@vecindario.app"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
