package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bidhouse/api"
)

func ParseArgs() (Args, error) {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "address the HTTP server listens on")
	pflag.Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests on shutdown")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")
	pflag.Bool("db-auto-migrate", false, "create or update tables on startup")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")
	pflag.String("redis-key-prefix", "bidhouse:", "prefix of lock and revocation keys")
	pflag.Duration("redis-lock-expiry", 8*time.Second, "expiry of auction and wallet locks, renewed while held")

	// redis stream keys
	pflag.String("redis-stream-key-for-bids", "bidhouse-bid-events", "")

	// s3 config
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-bucket", "", "leave empty to disable image upload")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")
	pflag.Int64("s3-rate-limit-per-hour", 20, "images a user may upload per hour, 0 for unlimited")
	pflag.Int64("s3-max-image-size", 5<<20, "maximum image size in bytes")

	// auth config
	pflag.String("auth-private-key", "", "base64 encoded ed25519 seed used to sign access tokens")
	pflag.String("auth-issuer", "bidhouse", "")
	pflag.String("auth-audience", "bidhouse", "")
	pflag.Duration("auth-expire-duration", 24*time.Hour, "")
	pflag.String("auth-cookie-name", "bidhouse_token", "")
	pflag.Bool("auth-secure-cookie", true, "")

	// bootstrap administrator
	pflag.String("admin-username", "", "")
	pflag.String("admin-password", "", "")

	// bind pflag to viper
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return Args{}, fmt.Errorf("fail to bind flags, err=%w", err)
	}
	viper.AutomaticEnv()
	viper.SetEnvPrefix("BIDHOUSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	privateKey, err := api.ParsePrivateKey(viper.GetString("auth-private-key"))
	if err != nil {
		return Args{}, fmt.Errorf("invalid auth-private-key, err=%w", err)
	}

	// initial arguments
	return Args{
		ServerURL:       viper.GetString("server-url"),
		ShutdownTimeout: viper.GetDuration("shutdown-timeout"),
		ServerConfig: api.ServerConfig{
			DB: api.DBConfig{
				User:        viper.GetString("db-user"),
				Password:    viper.GetString("db-password"),
				Host:        viper.GetString("db-host"),
				Port:        viper.GetInt("db-port"),
				Database:    viper.GetString("db-database"),
				Schema:      viper.GetString("db-schema"),
				AutoMigrate: viper.GetBool("db-auto-migrate"),
			},
			Redis: api.RedisConfig{
				Addr:       viper.GetString("redis-addr"),
				Password:   viper.GetString("redis-password"),
				DB:         viper.GetInt("redis-db"),
				KeyPrefix:  viper.GetString("redis-key-prefix"),
				LockExpiry: viper.GetDuration("redis-lock-expiry"),
				StreamKeys: api.RedisStreamKeys{
					BidEvents: viper.GetString("redis-stream-key-for-bids"),
				},
			},
			S3: api.S3Config{
				Endpoint:         viper.GetString("s3-endpoint"),
				Bucket:           viper.GetString("s3-bucket"),
				PublicBaseURL:    viper.GetString("s3-public-base-url"),
				AccessKeyID:      viper.GetString("s3-access-key-id"),
				SecretAccessKey:  viper.GetString("s3-secret-access-key"),
				RateLimitPerHour: viper.GetInt64("s3-rate-limit-per-hour"),
				MaxImageSize:     viper.GetInt64("s3-max-image-size"),
			},
			Auth: api.AuthConfig{
				PrivateKey:     privateKey,
				Issuer:         viper.GetString("auth-issuer"),
				Audience:       viper.GetString("auth-audience"),
				ExpireDuration: viper.GetDuration("auth-expire-duration"),
				CookieName:     viper.GetString("auth-cookie-name"),
				SecureCookie:   viper.GetBool("auth-secure-cookie"),
			},
			Admin: api.AdminConfig{
				Username: viper.GetString("admin-username"),
				Password: viper.GetString("admin-password"),
			},
		},
	}, nil
}

type Args struct {
	ServerURL       string        `validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `validate:"min=0"`
	ServerConfig    api.ServerConfig
}

func (args Args) Validate() error {
	if err := validator.New().StructPartial(args, "ServerURL", "ShutdownTimeout"); err != nil {
		return fmt.Errorf("invalid arguments, err=%w", err)
	}
	return args.ServerConfig.Validate()
}
