// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/rapidaai/intake-relay/pkg/configs"
	"github.com/rapidaai/intake-relay/pkg/utils"
	"github.com/spf13/viper"
)

// ElevenLabsConfig holds the voice-AI provider settings. Credentials are optional
// here; a missing key or agent fails the individual call as an unavailable upstream.
type ElevenLabsConfig struct {
	ApiKey           string        `mapstructure:"api_key"`
	InboundAgentId   string        `mapstructure:"inbound_agent_id"`
	OutboundAgentId  string        `mapstructure:"outbound_agent_id"`
	PhoneNumberId    string        `mapstructure:"phone_number_id"`
	Strategy         string        `mapstructure:"strategy" validate:"oneof=direct signed_url"`
	ApiBaseUrl       string        `mapstructure:"api_base_url" validate:"required,url"`
	WebsocketBaseUrl string        `mapstructure:"websocket_base_url" validate:"required"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"account_sid"`
	AuthToken           string `mapstructure:"auth_token"`
	OutboundPhoneNumber string `mapstructure:"outbound_phone_number"`
	ValidateSignature   bool   `mapstructure:"validate_signature"`
}

type RelayConfig struct {
	PendingAudioLimit   int           `mapstructure:"pending_audio_limit" validate:"gt=0"`
	MalformedFrameLimit int           `mapstructure:"malformed_frame_limit" validate:"gt=0"`
	TerminateTimeout    time.Duration `mapstructure:"terminate_timeout" validate:"gt=0"`
}

type ContextStoreConfig struct {
	Backend        string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Ttl            time.Duration `mapstructure:"ttl" validate:"gt=0"`
	RecentFallback bool          `mapstructure:"recent_fallback"`
	RecentWindow   time.Duration `mapstructure:"recent_window"`
}

type AirtableConfig struct {
	ApiKey     string `mapstructure:"api_key"`
	BaseId     string `mapstructure:"base_id"`
	Table      string `mapstructure:"table"`
	ApiBaseUrl string `mapstructure:"api_base_url"`
}

type RecordStoreConfig struct {
	Backend  string         `mapstructure:"backend" validate:"oneof=none airtable postgres"`
	Airtable AirtableConfig `mapstructure:"airtable"`
}

type AutomationConfig struct {
	WebhookUrl string `mapstructure:"webhook_url"`
}

// Application config structure
type AppConfig struct {
	Name         string             `mapstructure:"service_name" validate:"required"`
	Version      string             `mapstructure:"version" validate:"required"`
	Env          string             `mapstructure:"env"`
	Host         string             `mapstructure:"host" validate:"required"`
	Port         int                `mapstructure:"port" validate:"required"`
	LogLevel     string             `mapstructure:"log_level" validate:"required"`
	LogPath      string             `mapstructure:"log_path"`
	PublicHost   string             `mapstructure:"public_host" validate:"required"`
	FirmName     string             `mapstructure:"firm_name"`
	AgentName    string             `mapstructure:"agent_name"`
	ShutdownWait time.Duration      `mapstructure:"shutdown_wait" validate:"gt=0"`
	ElevenLabs   ElevenLabsConfig   `mapstructure:"elevenlabs" validate:"required"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	Relay        RelayConfig        `mapstructure:"relay" validate:"required"`
	ContextStore ContextStoreConfig `mapstructure:"context_store" validate:"required"`
	RecordStore  RecordStoreConfig  `mapstructure:"record_store" validate:"required"`
	Automation   AutomationConfig   `mapstructure:"automation"`

	PostgresConfig configs.PostgresConfig `mapstructure:"postgres"`
	RedisConfig    configs.RedisConfig    `mapstructure:"redis"`
}

// IsDevelopment reports whether debug routes and the recency fallback may be enabled.
func (cfg *AppConfig) IsDevelopment() bool {
	return utils.FromEnvironmentStr(cfg.Env).IsDevelopment()
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		log.Printf("Reading from env variables, no config file loaded: %v", err)
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// every key needs a default so AutomaticEnv can bind it during Unmarshal
	// keeping watch on https://github.com/spf13/viper/issues/188
	v.SetDefault("SERVICE_NAME", "intake-relay")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 3000)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("PUBLIC_HOST", "localhost:3000")
	v.SetDefault("FIRM_NAME", "Winslow Law Firm")
	v.SetDefault("AGENT_NAME", "Sarah")
	v.SetDefault("SHUTDOWN_WAIT", "15s")

	v.SetDefault("ELEVENLABS__API_KEY", "")
	v.SetDefault("ELEVENLABS__INBOUND_AGENT_ID", "")
	v.SetDefault("ELEVENLABS__OUTBOUND_AGENT_ID", "")
	v.SetDefault("ELEVENLABS__PHONE_NUMBER_ID", "")
	v.SetDefault("ELEVENLABS__STRATEGY", "signed_url")
	v.SetDefault("ELEVENLABS__API_BASE_URL", "https://api.elevenlabs.io")
	v.SetDefault("ELEVENLABS__WEBSOCKET_BASE_URL", "wss://api.elevenlabs.io")
	v.SetDefault("ELEVENLABS__CONNECT_TIMEOUT", "10s")

	v.SetDefault("TWILIO__ACCOUNT_SID", "")
	v.SetDefault("TWILIO__AUTH_TOKEN", "")
	v.SetDefault("TWILIO__OUTBOUND_PHONE_NUMBER", "")
	v.SetDefault("TWILIO__VALIDATE_SIGNATURE", false)

	v.SetDefault("RELAY__PENDING_AUDIO_LIMIT", 250)
	v.SetDefault("RELAY__MALFORMED_FRAME_LIMIT", 25)
	v.SetDefault("RELAY__TERMINATE_TIMEOUT", "5s")

	v.SetDefault("CONTEXT_STORE__BACKEND", "memory")
	v.SetDefault("CONTEXT_STORE__TTL", "30m")
	v.SetDefault("CONTEXT_STORE__RECENT_FALLBACK", false)
	v.SetDefault("CONTEXT_STORE__RECENT_WINDOW", "10s")

	v.SetDefault("RECORD_STORE__BACKEND", "none")
	v.SetDefault("RECORD_STORE__AIRTABLE__API_KEY", "")
	v.SetDefault("RECORD_STORE__AIRTABLE__BASE_ID", "")
	v.SetDefault("RECORD_STORE__AIRTABLE__TABLE", "Leads")
	v.SetDefault("RECORD_STORE__AIRTABLE__API_BASE_URL", "https://api.airtable.com")

	v.SetDefault("AUTOMATION__WEBHOOK_URL", "")

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "intake")
	v.SetDefault("POSTGRES__AUTH__USER", "<>")
	v.SetDefault("POSTGRES__AUTH__PASSWORD", "<>")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")

	v.SetDefault("REDIS__HOST", "localhost")
	v.SetDefault("REDIS__PORT", 6379)
	v.SetDefault("REDIS__DB", 0)
	v.SetDefault("REDIS__AUTH__USER", "")
	v.SetDefault("REDIS__AUTH__PASSWORD", "")
	v.SetDefault("REDIS__MAX_CONNECTION", 10)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
