package api

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type ServerConfig struct {
	DB    DBConfig
	Redis RedisConfig
	S3    S3Config
	Auth  AuthConfig
	Admin AdminConfig
}

type DBConfig struct {
	User        string `validate:"required"`
	Password    string
	Host        string `validate:"required"`
	Port        int    `validate:"min=1,max=65535"`
	Database    string `validate:"required"`
	Schema      string
	AutoMigrate bool
}

type RedisConfig struct {
	Addr       string `validate:"required"`
	Password   string
	DB         int           `validate:"min=0"`
	KeyPrefix  string        // prepended to lock and revocation keys
	LockExpiry time.Duration `validate:"min=1s"`

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	BidEvents string `validate:"required"`
}

// S3Config is optional as a whole: without a bucket, image upload is disabled.
type S3Config struct {
	AccessKeyID      string `validate:"required_with=Bucket"`
	SecretAccessKey  string `validate:"required_with=Bucket"`
	Endpoint         string `validate:"omitempty,url"`
	Bucket           string
	PublicBaseURL    string `validate:"required_with=Bucket"`
	RateLimitPerHour int64  `validate:"min=0"`
	MaxImageSize     int64  `validate:"min=1"`
}

type AuthConfig struct {
	PrivateKey     ed25519.PrivateKey `validate:"required,len=64"`
	Issuer         string             `validate:"required"`
	Audience       string             `validate:"required"`
	ExpireDuration time.Duration      `validate:"min=1m"`
	CookieName     string             `validate:"required"`
	SecureCookie   bool
}

// AdminConfig names an administrator created at startup when missing.
type AdminConfig struct {
	Username string
	Password string `validate:"required_with=Username"`
}

// Validate checks the assembled configuration.
func (c ServerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid server config, err=%w", err)
	}
	return nil
}
