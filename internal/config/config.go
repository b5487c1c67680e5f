package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr string
	Port       string
	GinMode    string

	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string

	StorageDriver  string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3UseSSL       bool
	StorageBaseURL string
	UploadDir      string
	UploadURLPath  string
	TempDir        string
	MaxUploadBytes int64

	AdminEmails   []string
	AdminPassHash string
	JWTSecret     string
	JWTTTL        time.Duration
	SignedURLTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel  string
	LogFormat string
}

// ErrJWTSecretMissing 未配置 JWT_SECRET 时无法安全签发 token
var ErrJWTSecretMissing = errors.New("JWT_SECRET must be set")

// ValidateAuth 检查签发 token 所需的密钥已显式配置
func (c AppConfig) ValidateAuth() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrJWTSecretMissing
	}
	return nil
}

// Load 依次读取默认值、可选的配置文件（CONFIG_FILE 或 ./config.yaml）与环境变量。
func Load() (AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := readConfigFile(v); err != nil {
		return AppConfig{}, err
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", "gallery.db")
	v.SetDefault("storage_driver", "local")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_use_ssl", true)
	v.SetDefault("upload_dir", "web/static/uploads")
	v.SetDefault("upload_url_path", "/uploads")
	v.SetDefault("temp_dir", "temp")
	v.SetDefault("max_upload_mb", 20)
	v.SetDefault("jwt_ttl", "12h")
	v.SetDefault("signed_url_ttl", "3600s")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

func readConfigFile(v *viper.Viper) error {
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func fromViper(v *viper.Viper) AppConfig {
	port := trimmed(v, "port")
	listenAddr := trimmed(v, "listen_addr")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	storageBaseURL := trimmed(v, "storage_base_url")
	uploadURLPath := trimmed(v, "upload_url_path")
	storageDriver := strings.ToLower(trimmed(v, "storage_driver"))
	if storageBaseURL == "" && storageDriver == "local" {
		storageBaseURL = uploadURLPath
	}

	maxUploadMB := v.GetInt64("max_upload_mb")
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		GinMode:        trimmed(v, "gin_mode"),
		DatabaseDriver: strings.ToLower(trimmed(v, "database_driver")),
		DatabasePath:   trimmed(v, "database_path"),
		DatabaseDSN:    trimmed(v, "database_dsn"),
		StorageDriver:  storageDriver,
		S3Endpoint:     trimmed(v, "s3_endpoint"),
		S3AccessKey:    trimmed(v, "s3_access_key"),
		S3SecretKey:    trimmed(v, "s3_secret_key"),
		S3Bucket:       trimmed(v, "s3_bucket"),
		S3Region:       trimmed(v, "s3_region"),
		S3UseSSL:       v.GetBool("s3_use_ssl"),
		StorageBaseURL: storageBaseURL,
		UploadDir:      trimmed(v, "upload_dir"),
		UploadURLPath:  uploadURLPath,
		TempDir:        trimmed(v, "temp_dir"),
		MaxUploadBytes: maxUploadMB << 20,
		AdminEmails:    splitList(v.GetString("admin_emails")),
		AdminPassHash:  trimmed(v, "admin_pass_hash"),
		JWTSecret:      trimmed(v, "jwt_secret"),
		JWTTTL:         v.GetDuration("jwt_ttl"),
		SignedURLTTL:   v.GetDuration("signed_url_ttl"),
		RedisAddr:      trimmed(v, "redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		CacheTTL:       v.GetDuration("cache_ttl"),
		LogLevel:       trimmed(v, "log_level"),
		LogFormat:      trimmed(v, "log_format"),
	}
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// splitList 解析逗号分隔的列表，忽略空项
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.ToLower(strings.TrimSpace(part)); value != "" {
			items = append(items, value)
		}
	}
	return items
}
