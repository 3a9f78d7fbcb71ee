package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Portal     PortalConfig     `yaml:"portal"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Share      ShareConfig      `yaml:"share"`
	Backup     BackupConfig     `yaml:"backup"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"180s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// StorageConfig selects where the state document lives.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	Path   string `yaml:"path"   env:"STORAGE_PATH"   env-default:"./data/billvault.db"`
}

// PortalConfig describes how portal pages are reached.
type PortalConfig struct {
	DefaultURL    string        `yaml:"default_url"     env:"PORTAL_DEFAULT_URL"     env-default:"https://www.upcl.org/wss/pages/quickBillPayment?uksc={UKSC}"`
	Proxies       []string      `yaml:"proxies"         env:"PORTAL_PROXIES"         env-separator:","`
	MinBodyLength int           `yaml:"min_body_length" env:"PORTAL_MIN_BODY_LENGTH" env-default:"200"`
	Timeout       time.Duration `yaml:"timeout"         env:"PORTAL_TIMEOUT"         env-default:"20s"`
}

// ExtractionConfig holds model settings. The API key itself lives in app
// settings, not here.
type ExtractionConfig struct {
	Model         string `yaml:"model"           env:"EXTRACTION_MODEL"           env-default:"claude-3-5-haiku-latest"`
	MaxInputChars int    `yaml:"max_input_chars" env:"EXTRACTION_MAX_INPUT_CHARS" env-default:"30000"`
	MaxTokens     int64  `yaml:"max_tokens"      env:"EXTRACTION_MAX_TOKENS"      env-default:"1024"`
}

// ScheduleConfig holds scheduled refresh settings.
type ScheduleConfig struct {
	Pause time.Duration `yaml:"pause" env:"SCHEDULE_PAUSE" env-default:"3s"`
}

// ShareConfig holds share link settings.
type ShareConfig struct {
	CountryCode string `yaml:"country_code" env:"SHARE_COUNTRY_CODE" env-default:"91"`
}

// BackupConfig selects where backups go. S3 is used when S3Bucket is set.
type BackupConfig struct {
	Dir         string `yaml:"dir"           env:"BACKUP_DIR"           env-default:"./data/backups"`
	S3Bucket    string `yaml:"s3_bucket"     env:"BACKUP_S3_BUCKET"`
	S3Prefix    string `yaml:"s3_prefix"     env:"BACKUP_S3_PREFIX"     env-default:"billvault"`
	S3Region    string `yaml:"s3_region"     env:"BACKUP_S3_REGION"     env-default:"us-east-1"`
	S3Endpoint  string `yaml:"s3_endpoint"   env:"BACKUP_S3_ENDPOINT"`
	S3AccessKey string `yaml:"s3_access_key" env:"BACKUP_S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"BACKUP_S3_SECRET_KEY"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
