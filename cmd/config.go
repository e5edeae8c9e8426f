package cmd

import (
	"encoding/json"
	"strings"

	"github.com/fatih/structs"
	nats "github.com/nats-io/nats.go"
	"github.com/spf13/viper"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/connector"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/quota"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/retention"
)

// Config define service configuration structure
type Config struct {
	LogLevel       string                    `mapstructure:"log_level"`
	Backend        string                    `mapstructure:"backend"`
	Postgres       *connector.PostgresConfig `mapstructure:"postgres"`
	Mongo          *connector.MongoConfig    `mapstructure:"mongo"`
	Neo4j          *connector.Neo4jConfig    `mapstructure:"neo4j"`
	S3Bucket       string                    `mapstructure:"s3_bucket"`
	EventNamespace string                    `mapstructure:"event_namespace"`
	NatsURL        string                    `mapstructure:"nats_url"`
	InviteSecret   string                    `mapstructure:"invite_secret"`
	Quota          *quota.Limits             `mapstructure:"quota"`
	SweepSchedule  string                    `mapstructure:"sweep_schedule"`
	SweepPageSize  int                       `mapstructure:"sweep_page_size"`
}

// DefaultConfig is default configuration
var DefaultConfig = Config{
	LogLevel:       "info",
	Backend:        "postgres",
	Postgres:       connector.DefaultPostgresConfig,
	Mongo:          connector.DefaultMongoConfig,
	Neo4j:          connector.DefaultNeo4jConfig,
	S3Bucket:       "chatrooms-files",
	EventNamespace: "rooms",
	NatsURL:        nats.DefaultOptions.Url,
	InviteSecret:   "invite-secret",
	Quota:          &quota.DefaultLimits,
	SweepSchedule:  retention.DefaultSchedule,
	SweepPageSize:  retention.DefaultPageSize,
}

// String implement string interface
func (c *Config) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

var conf = viper.New()
var keys []string

// getEnvKeys will read environment keys
func getEnvKeys(fields []*structs.Field, prefix string) {
	for _, field := range fields {
		key := field.Tag("mapstructure")
		if prefix != "" {
			keys = append(keys, prefix+"."+key)
		} else {
			keys = append(keys, key)
		}
		if field.Kind().String() == "ptr" {
			if len(prefix) > 0 {
				key = prefix + "." + key
			}
			getEnvKeys(structs.Fields(field.Value()), key)
		}
	}
}

// LoadConfig will load configurations
func LoadConfig() (*Config, error) {
	// initiate config
	config := DefaultConfig
	// get all configurations keys
	fields := structs.Fields(config)
	getEnvKeys(fields, "")
	// read from config file
	conf.SetConfigName("config")
	conf.AddConfigPath("/etc/chatrooms/")
	conf.AddConfigPath("$HOME/.chatrooms")
	conf.AddConfigPath(".")
	conf.SetConfigType("yaml")
	_ = conf.ReadInConfig()
	// replace configurations using environment
	conf.SetEnvPrefix("chatrooms")
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// reflect default configs to get all keys
	for _, key := range keys {
		_ = conf.BindEnv(key)
		val := conf.Get(key)
		conf.Set(key, val)
	}
	// unmarshal configuration
	err := conf.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
