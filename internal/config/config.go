// config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI        string
	MongoDBName     string
	AuthURL         string
	RabbitURL       string
	Port            string
	TaxRate         float64
	DefaultShipping float64
}

func Load() *Config {
	// A missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	return &Config{
		MongoURI:        getEnv("MONGO_URI", "mongodb://host.docker.internal:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "order_fulfillment_db"),
		AuthURL:         getEnv("AUTH_URL", "http://host.docker.internal:3000"),
		RabbitURL:       getEnv("RABBIT_URL", "amqp://host.docker.internal"),
		Port:            getEnv("PORT", "8080"),
		TaxRate:         getEnvFloat("TAX_RATE", 0.05),
		DefaultShipping: getEnvFloat("DEFAULT_SHIPPING_COST", 10.0),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
