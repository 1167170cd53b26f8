package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// MongoDB Configuration (default record store and GridFS photo storage)
	MongoDB MongoDBConfig `json:"mongodb"`

	// SQL Database Configuration (mysql or postgres record store)
	Database DatabaseConfig `json:"database"`

	// Store selects the record store backend
	Store StoreConfig `json:"store"`

	// Storage selects where profile photos are kept
	Storage StorageConfig `json:"storage"`

	CORS CORSConfig `json:"cors"`

	// Auth Configuration (optional bearer auth on mutating routes)
	Auth AuthConfig `json:"auth"`

	// Sentry Configuration (optional)
	Sentry SentryConfig `json:"sentry"`

	Users UsersConfig `json:"users"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port            string `json:"port"`
	Host            string `json:"host"`
	GRPCPort        string `json:"grpc_port"`
	MediaServerPort string `json:"media_server_port"`
	ReadTimeout     int    `json:"read_timeout"`
	WriteTimeout    int    `json:"write_timeout"`
	Environment     string `json:"environment"` // development, staging, production
	MaxUploadSize   int64  `json:"max_upload_size"`
}

// MongoDBConfig contains MongoDB connection configuration
type MongoDBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`

	// URI overrides the values above when set
	URI string `json:"uri"`
}

// DatabaseConfig contains SQL database connection configuration
type DatabaseConfig struct {
	Driver       string `json:"driver"` // mysql, postgres
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	SSLMode      string `json:"ssl_mode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type StoreConfig struct {
	Driver string `json:"driver"` // mongo, mysql, postgres, memory
}

// StorageConfig contains profile photo storage configuration
type StorageConfig struct {
	Driver      string `json:"driver"` // local, gridfs, s3
	UploadDir   string `json:"upload_dir"`
	GridFSName  string `json:"gridfs_bucket"`
	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"-"`
	S3SecretKey string `json:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string `json:"-"`
	Issuer    string `json:"issuer"`
}

type SentryConfig struct {
	DSN string `json:"-"`
}

type UsersConfig struct {
	// DeletePhotoOnDelete removes the stored profile photo when a user is deleted.
	DeletePhotoOnDelete bool `json:"delete_photo_on_delete"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, text
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "3000"),
			Host:            getEnvOrDefault("HOST", ""),
			GRPCPort:        getEnvOrDefault("GRPC_PORT", "3001"),
			MediaServerPort: getEnvOrDefault("MEDIA_SERVER_PORT", "8080"),
			ReadTimeout:     getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			Environment:     getEnvOrDefault("APP_ENV", "development"),
			MaxUploadSize:   int64(getEnvInt("MAX_UPLOAD_SIZE", 10<<20)),
		},
		MongoDB: MongoDBConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USERNAME", ""),
			Password: getEnvOrDefault("MONGO_PASSWORD", ""),
			Database: getEnvOrDefault("MONGO_DATABASE", "userdirectory"),
			URI:      getEnvOrDefault("MONGODB_URI", ""),
		},
		Database: DatabaseConfig{
			Driver:       getEnvOrDefault("DB_DRIVER", "mysql"),
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", ""),
			Username:     getEnvOrDefault("DB_USER", "userdirectory"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", "userdirectory"),
			SSLMode:      getEnvOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Store: StoreConfig{
			Driver: getEnvOrDefault("STORE_DRIVER", "mongo"),
		},
		Storage: StorageConfig{
			Driver:      getEnvOrDefault("STORAGE_DRIVER", "local"),
			UploadDir:   getEnvOrDefault("UPLOAD_DIR", "uploads"),
			GridFSName:  getEnvOrDefault("GRIDFS_BUCKET", "profile_photos"),
			S3Bucket:    getEnvOrDefault("S3_BUCKET", ""),
			S3Region:    getEnvOrDefault("S3_REGION", getEnvOrDefault("AWS_REGION", "us-east-1")),
			S3Endpoint:  getEnvOrDefault("S3_ENDPOINT", ""),
			S3AccessKey: getEnvOrDefault("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnvOrDefault("S3_SECRET_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
			Issuer:    getEnvOrDefault("JWT_ISSUER", "userdirectory"),
		},
		Sentry: SentryConfig{
			DSN: getEnvOrDefault("SENTRY_DSN", ""),
		},
		Users: UsersConfig{
			DeletePhotoOnDelete: getEnvOrDefault("USERS_DELETE_PHOTO_ON_DELETE", "false") == "true",
		},
		Logging: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Format:     getEnvOrDefault("LOG_FORMAT", "text"),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
		},
	}
}

func (cfg *Config) IsProduction() bool {
	return cfg.Server.Environment == "production"
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.URI != "" {
		return cfg.MongoDB.URI
	}
	if cfg.MongoDB.Username == "" {
		return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}

// DSN builds the connection string for the configured SQL driver.
func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}

	if cfg.Database.Driver == "postgres" {
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Username,
			cfg.Database.Password,
			cfg.Database.DatabaseName,
			cfg.Database.SSLMode,
		)
	}

	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
