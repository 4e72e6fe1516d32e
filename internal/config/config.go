// internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BucketEnvKey names the environment variable holding the target bucket.
const BucketEnvKey = "BUCKET_NAME"

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig holds the connection info for the S3-compatible endpoint.
// The bucket is deliberately absent: it is resolved per invocation through Bucket.
type StorageConfig struct {
	Driver         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
	ForcePathStyle bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		instance = load(viper.GetViper())
	})

	return instance
}

func load(v *viper.Viper) *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
			Endpoint:       v.GetString("S3_ENDPOINT"),
			AccessKey:      v.GetString("S3_ACCESS_KEY"),
			SecretKey:      v.GetString("S3_SECRET_KEY"),
			Region:         v.GetString("S3_REGION"),
			UseSSL:         v.GetBool("S3_USE_SSL"),
			ForcePathStyle: v.GetBool("S3_FORCE_PATH_STYLE"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("STORAGE_DRIVER", "minio")
	v.SetDefault("S3_ENDPOINT", "localstack:4566")
	v.SetDefault("S3_ACCESS_KEY", "test")
	v.SetDefault("S3_SECRET_KEY", "test")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_FORCE_PATH_STYLE", true)
}

// BucketResolver returns the bucket name for the current invocation.
type BucketResolver func() string

// BucketFrom returns a resolver bound to v. BUCKET_NAME is looked up on every
// call, so the value is never frozen at startup.
func BucketFrom(v *viper.Viper) BucketResolver {
	_ = v.BindEnv(BucketEnvKey)
	return func() string {
		return strings.TrimSpace(v.GetString(BucketEnvKey))
	}
}

// StaticBucket always resolves to name. Mostly useful for tests and the invoke CLI.
func StaticBucket(name string) BucketResolver {
	return func() string { return name }
}
