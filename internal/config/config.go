package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	ServerPort   string
	IsProduction bool
	FrontendURL  string
	CORSOrigins  []string

	DatabaseDSN string
	DbHost      string
	DbPort      string
	DbUser      string
	DbPassword  string
	DbName      string

	JwtSecret   string
	Issuer      string
	SessionTTL  time.Duration
	ResetTTL    time.Duration
	AdminEmails []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GithubClientID     string
	GithubClientSecret string
	GithubRedirectURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	ExpirySweepInterval  time.Duration
	SessionSweepInterval time.Duration
	NotificationPollRate time.Duration
	AuditRetentionDays   int

	LogLevel string
	LogFile  string

	Kubeconfig     string
	K8sGPUResource string
	K8sGPULabel    string
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("CORS_ORIGINS", "http://localhost:,http://127.0.0.1:")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "gpu_portal")

	v.SetDefault("JWT_SECRET", "defaultsecret")
	v.SetDefault("ISSUER", "gpu-portal")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("RESET_TTL", "1h")

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@gpu-portal.local")

	v.SetDefault("MINIO_BUCKET", "gpu-portal")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "10m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "15m")
	v.SetDefault("NOTIFICATION_POLL_INTERVAL", "30s")
	v.SetDefault("AUDIT_RETENTION_DAYS", 30)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("K8S_GPU_RESOURCE", "nvidia.com/gpu")
	v.SetDefault("K8S_GPU_LABEL", "nvidia.com/gpu.product")
}

// LoadConfig reads .env, the optional CONFIG_FILE and the process environment,
// in increasing order of precedence.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.WithError(err).Warnf("failed to read config file %s", file)
		}
	}

	apply(v)
}

func apply(v *viper.Viper) {
	ServerPort = v.GetString("SERVER_PORT")
	IsProduction = v.GetBool("IS_PRODUCTION")
	FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")
	CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	DatabaseDSN = v.GetString("DATABASE_DSN")
	DbHost = v.GetString("DB_HOST")
	DbPort = v.GetString("DB_PORT")
	DbUser = v.GetString("DB_USER")
	DbPassword = v.GetString("DB_PASSWORD")
	DbName = v.GetString("DB_NAME")

	JwtSecret = v.GetString("JWT_SECRET")
	Issuer = v.GetString("ISSUER")
	SessionTTL = v.GetDuration("SESSION_TTL")
	ResetTTL = v.GetDuration("RESET_TTL")
	AdminEmails = splitList(strings.ToLower(v.GetString("ADMIN_EMAILS")))

	RedisAddr = v.GetString("REDIS_ADDR")
	RedisPassword = v.GetString("REDIS_PASSWORD")
	RedisDB = v.GetInt("REDIS_DB")

	GithubClientID = v.GetString("GITHUB_CLIENT_ID")
	GithubClientSecret = v.GetString("GITHUB_CLIENT_SECRET")
	GithubRedirectURL = v.GetString("GITHUB_REDIRECT_URL")

	SMTPHost = v.GetString("SMTP_HOST")
	SMTPPort = v.GetInt("SMTP_PORT")
	SMTPUser = v.GetString("SMTP_USER")
	SMTPPassword = v.GetString("SMTP_PASSWORD")
	SMTPFrom = v.GetString("SMTP_FROM")

	MinioEndpoint = v.GetString("MINIO_ENDPOINT")
	MinioAccessKey = v.GetString("MINIO_ACCESS_KEY")
	MinioSecretKey = v.GetString("MINIO_SECRET_KEY")
	MinioBucket = v.GetString("MINIO_BUCKET")
	MinioUseSSL = v.GetBool("MINIO_USE_SSL")

	ExpirySweepInterval = v.GetDuration("EXPIRY_SWEEP_INTERVAL")
	SessionSweepInterval = v.GetDuration("SESSION_SWEEP_INTERVAL")
	NotificationPollRate = v.GetDuration("NOTIFICATION_POLL_INTERVAL")
	AuditRetentionDays = v.GetInt("AUDIT_RETENTION_DAYS")

	LogLevel = v.GetString("LOG_LEVEL")
	LogFile = v.GetString("LOG_FILE")

	Kubeconfig = v.GetString("KUBECONFIG")
	K8sGPUResource = v.GetString("K8S_GPU_RESOURCE")
	K8sGPULabel = v.GetString("K8S_GPU_LABEL")
}

// PostgresDSN builds a key/value DSN from the DB_* settings.
func PostgresDSN() string {
	if DatabaseDSN != "" {
		return DatabaseDSN
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		DbHost, DbPort, DbUser, DbPassword, DbName,
	)
}

func IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
