package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/eventshots/internal/objectstore"
	"github.com/farellandr/eventshots/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port    string
	GinMode string

	RecordStore string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string
	MongoURI    string
	MongoDB     string

	ObjectStore   string
	Bucket        string
	StorageDir    string
	PublicBaseURL string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	JWTSecret string
	JWTTTL    time.Duration

	UploadMaxMB   int
	IngestWorkers int
	BatchMaxItems int
	CORSOrigins   []string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %v", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (*Config, error) {
	ttlHours, err := getenvInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	uploadMaxMB, err := getenvInt("UPLOAD_MAX_MB", 10)
	if err != nil {
		return nil, err
	}
	workers, err := getenvInt("INGEST_WORKERS", 1)
	if err != nil {
		return nil, err
	}
	batchMax, err := getenvInt("BATCH_MAX_ITEMS", 50)
	if err != nil {
		return nil, err
	}

	port := getenv("PORT", "8080")
	cfg := &Config{
		Port:    port,
		GinMode: os.Getenv("GIN_MODE"),

		RecordStore: getenv("RECORD_STORE", "postgres"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		SQLitePath:  getenv("SQLITE_PATH", "./eventshots.db"),
		MongoURI:    getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "eventshots"),

		ObjectStore:   getenv("OBJECT_STORE", "local"),
		Bucket:        getenv("STORAGE_BUCKET", "photos"),
		StorageDir:    getenv("STORAGE_DIR", "./uploads"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:"+port+"/media"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(ttlHours) * time.Hour,

		UploadMaxMB:   uploadMaxMB,
		IngestWorkers: workers,
		BatchMaxItems: batchMax,
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "*")),
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	switch cfg.RecordStore {
	case "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("unknown RECORD_STORE %q", cfg.RecordStore)
	}
	switch cfg.ObjectStore {
	case "local", "cloudinary":
	default:
		return fmt.Errorf("unknown OBJECT_STORE %q", cfg.ObjectStore)
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not configured")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if cfg.UploadMaxMB <= 0 {
		return fmt.Errorf("UPLOAD_MAX_MB must be positive")
	}
	return nil
}

func (cfg *Config) UploadMaxBytes() int64 {
	return int64(cfg.UploadMaxMB) * 1024 * 1024
}

func (cfg *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

func (cfg *Config) gormLogLevel() logger.LogLevel {
	if cfg.GinMode == "release" {
		return logger.Error
	}
	return logger.Warn
}

// InitDatabase opens the configured record store and prepares its schema.
func InitDatabase(cfg *Config) (store.Store, error) {
	switch cfg.RecordStore {
	case "sqlite":
		s, err := store.OpenSQLite(cfg.SQLitePath, cfg.gormLogLevel())
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		s, err := InitMongo(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := store.OpenPostgres(cfg.PostgresDSN(), cfg.gormLogLevel())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func InitMongo(cfg *Config) (*store.MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	s := store.NewMongoStore(client, cfg.MongoDB)
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func InitObjectStore(cfg *Config) (objectstore.ObjectStore, error) {
	if cfg.ObjectStore == "cloudinary" {
		cld, err := objectstore.NewCloudinary(
			cfg.CloudinaryCloudName,
			cfg.CloudinaryAPIKey,
			cfg.CloudinaryAPISecret,
			cfg.Bucket,
		)
		if err != nil {
			return nil, err
		}
		return cld, nil
	}
	local, err := objectstore.NewLocal(cfg.StorageDir, cfg.Bucket, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}
