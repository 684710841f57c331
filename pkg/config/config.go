package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

func ProvideConfig() Config {
	return Config{
		Port:      optionalEnvAsInt("PORT", 8005),
		BasePath:  optionalEnv("BASE_PATH", ""),
		PublicURL: requireEnv("PUBLIC_URL"),
		APIKey:    requireEnv("API_KEY"),
		Redis: redis{
			Host:     requireEnv("REDIS_HOST"),
			Port:     optionalEnvAsInt("REDIS_PORT", 6379),
			Password: optionalEnv("REDIS_PASSWORD", ""),
			Database: optionalEnvAsInt("REDIS_DATABASE", 0),
		},
		LinkedServer: linkedServer{
			User:        optionalEnv("LINKED_SERVER_USER", ""),
			Pass:        optionalEnv("LINKED_SERVER_PASS", ""),
			BearerToken: optionalEnv("LINKED_SERVER_BEARER_TOKEN", ""),
			LegacyProbe: optionalEnvAsBool("LINKED_SERVER_LEGACY_PROBE", false),
		},
		RequestTimeout:     optionalEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		TransformWorkers:   optionalEnvAsInt("TRANSFORM_WORKERS", 0),
		TransformQueueWait: optionalEnvAsDuration("TRANSFORM_QUEUE_WAIT", 10*time.Second),
		InstanceTTL:        optionalEnvAsDuration("INSTANCE_TTL", 30*time.Second),
		PrettyLogging:      optionalEnvAsBool("PRETTY_LOGGING", false),
	}
}

type Config struct {
	Port               int
	BasePath           string
	PublicURL          string
	APIKey             string
	Redis              redis
	LinkedServer       linkedServer
	RequestTimeout     time.Duration
	TransformWorkers   int
	TransformQueueWait time.Duration
	InstanceTTL        time.Duration
	PrettyLogging      bool
}

type redis struct {
	Host     string
	Port     int
	Password string
	Database int
}

func (r redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// linkedServer describes the remote OpenRosa server this deployment is
// linked to. LegacyProbe switches the auth probe from HEAD to GET for servers
// that only implement GET.
type linkedServer struct {
	User        string
	Pass        string
	BearerToken string
	LegacyProbe bool
}

func requireEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("Can't find environment variable: %s\n", key)
	}
	return value
}

func optionalEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

func optionalEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse %s as integer: %s", key, err.Error())
	}
	return value
}

func optionalEnvAsBool(key string, fallback bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Fatalf("Can't parse %s as boolean: %s", key, err.Error())
	}
	return value
}

func optionalEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Fatalf("Can't parse %s as duration: %s", key, err.Error())
	}
	return value
}
