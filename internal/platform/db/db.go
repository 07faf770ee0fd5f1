package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	driverName = "mysql"

	StorageMySQL  = "mysql"
	StorageMemory = "memory"

	defaultAddr          = ":8080"
	defaultTimezone      = "UTC"
	defaultSchedulerSpec = "0 10 * * 1-5"
	defaultTokenTTLHours = 24
	devJWTSecret         = "dev-only-secret"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	JWTSecret      string         `yaml:"jwt_secret"`
	TokenTTLHours  int            `yaml:"token_ttl_hours"`
	BootstrapAdmin BootstrapAdmin `yaml:"bootstrap_admin"`
}

// 初回起動時にだけ作る管理者アカウント（既にあれば何もしない）
type BootstrapAdmin struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
}

// 出席済み園児の連絡帳を毎日自動作成するジョブ
type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
	StaffID string `yaml:"staff_id"`
}

type Config struct {
	Version     string          `yaml:"version"`
	Mode        string          `yaml:"mode"`
	Storage     string          `yaml:"storage"`
	Timezone    string          `yaml:"timezone"`
	Server      ServerConfig    `yaml:"server"`
	DB          DatabaseConfig  `yaml:"database"`
	Certificate Certs           `yaml:"certificate"`
	Auth        AuthConfig      `yaml:"auth"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
}

// LoadConfig reads the YAML file, then lets a .env file (or the process
// environment) override secrets.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}
	if v := os.Getenv("CARE_DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("CARE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CARE_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.BootstrapAdmin.Password = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage == "" {
		c.Storage = StorageMySQL
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = defaultTokenTTLHours
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = defaultSchedulerSpec
	}
	if c.Scheduler.StaffID == "" {
		c.Scheduler.StaffID = "system"
	}
	if c.Mode == "dev" && c.Auth.JWTSecret == "" {
		log.Printf("[WARN] auth.jwt_secret is empty; using an insecure development secret")
		c.Auth.JWTSecret = devJWTSecret
	}
}

func (c *Config) validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release: %q", c.Mode)
	}
	if c.Storage != StorageMySQL && c.Storage != StorageMemory {
		return fmt.Errorf("storage must be mysql or memory: %q", c.Storage)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Mode == "release" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in release mode")
	}
	if a := c.Auth.BootstrapAdmin; (a.ID == "") != (a.Password == "") {
		return fmt.Errorf("auth.bootstrap_admin needs both id and password")
	}
	return nil
}

// Location は連絡帳の日付境界に使うタイムゾーン
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// clientFoundRows: UPDATE の RowsAffected を「一致した行数」にする（値が同じでも 1）
func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC&multiStatements=true&clientFoundRows=true",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}

	// 接続プール（合算がMySQLの max_connections を超えないよう配分する）
	db.SetMaxOpenConns(40)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
