package config

import (
	"encoding/json"
	"os"

	"github.com/avealov/rulehub/internal/flagx"
	"github.com/avealov/rulehub/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for lifetime fields, which allows parsing
// both string values such as "1h" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config struct.
//
// Fields left out of the JSON file keep their current (default) values.
type JsonConfig struct {
	EndpointAddr             *string         `json:"endpoint_addr"`
	DatabaseDSN              *string         `json:"database_dsn"`
	BaseURL                  *string         `json:"base_url"`
	AccessTokenTTL           *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL          *timex.Duration `json:"refresh_token_ttl"`
	EmailVerifyTokenTTL      *timex.Duration `json:"email_verify_token_ttl"`
	ResetTokenTTL            *timex.Duration `json:"reset_token_ttl"`
	RequireEmailVerification *bool           `json:"require_email_verification"`
	BcryptCost               *int            `json:"bcrypt_cost"`

	SMTPHost     *string `json:"smtp_host"`
	SMTPPort     *int    `json:"smtp_port"`
	SMTPUsername *string `json:"smtp_username"`
	SMTPPassword *string `json:"smtp_password"`
	SMTPFrom     *string `json:"smtp_from"`

	RedisAddr     *string         `json:"redis_addr"`
	RedisPassword *string         `json:"redis_password"`
	RedisDB       *int            `json:"redis_db"`
	RedisCacheTTL *timex.Duration `json:"redis_cache_ttl"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.BaseURL != nil {
		config.BaseURL = *c.BaseURL
	}
	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL != nil {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.EmailVerifyTokenTTL != nil {
		config.EmailVerifyTokenTTL = c.EmailVerifyTokenTTL.Duration
	}
	if c.ResetTokenTTL != nil {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	if c.RequireEmailVerification != nil {
		config.RequireEmailVerification = *c.RequireEmailVerification
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.SMTPHost != nil {
		config.SMTPHost = *c.SMTPHost
	}
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	if c.SMTPUsername != nil {
		config.SMTPUsername = *c.SMTPUsername
	}
	if c.SMTPPassword != nil {
		config.SMTPPassword = *c.SMTPPassword
	}
	if c.SMTPFrom != nil {
		config.SMTPFrom = *c.SMTPFrom
	}
	if c.RedisAddr != nil {
		config.RedisAddr = *c.RedisAddr
	}
	if c.RedisPassword != nil {
		config.RedisPassword = *c.RedisPassword
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.RedisCacheTTL != nil {
		config.RedisCacheTTL = c.RedisCacheTTL.Duration
	}
}
