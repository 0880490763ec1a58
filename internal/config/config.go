// Package config reads config required for the entire application
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/viper"
)

const (
	EnvLive        = "live"
	EnvDevelopment = "development"
	EnvCI          = "ci"
)

const (
	StoreDriverMongoDB = "mongodb"
	StoreDriverStorm   = "storm"
)

/*
Config holds all the configurations required for the application to function.
Most drivers like Redis, SQL etc. have optional "client name" field. Make use of the
`cfg.AppFullname()` to set these. It helps us easily identify which version of the app is
communicating with the respective dependency. Especially when we have multiple versions of
deployed, connected to the same dependencies. It would also help us forcefully remove connections
from dependencies if required.
*/
type Config struct {
	AppName      string `json:"appName,omitempty" env:"APP_NAME" envDefault:"item-service"`
	Version      string `json:"version,omitempty" env:"APP_VERSION" envDefault:"v0.0.0"`
	AppBuildDate string `json:"appBuild,omitempty" env:"APP_BUILT_AT" envDefault:"0000-00-00"`
	Environment  string `json:"environment,omitempty" env:"ENVIRONMENT" envDefault:""`

	HTTP struct {
		Host              string        `json:"host,omitempty" env:"APP_HTTP_HOST" envDefault:""`
		Port              int           `json:"port,omitempty" env:"APP_HTTP_PORT" envDefault:"5001"`
		ReadHeaderTimeout time.Duration `json:"readHeaderTimeout,omitempty" env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
		ReadTimeout       time.Duration `json:"readTimeout,omitempty" env:"HTTP_READ_TIMEOUT" envDefault:"60s"`
		WriteTimeout      time.Duration `json:"writeTimeout,omitempty" env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout       time.Duration `json:"idleTimeout,omitempty" env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
		EnableAccesslog   bool
	} `json:"http,omitempty"`
	GRPC struct {
		Host            string        `json:"grpcHost,omitempty" env:"APP_GRPC_HOST" envDefault:""`
		Port            int           `json:"grpcPort,omitempty" env:"APP_GRPC_PORT" envDefault:"5002"`
		ConnTimeout     time.Duration `json:"grpcTimeout,omitempty" env:"APP_GRPC_TIMEOUT" envDefault:"15s"`
		EnableAccesslog bool
		TLSCertFile     string `json:"tlsCertFile,omitempty" env:"APP_GRPC_TLS_CERT"`
		TLSKeyFile      string `json:"tlsKeyFile,omitempty" env:"APP_GRPC_TLS_KEY"`
	} `json:"grpc,omitempty"`

	Store struct {
		// Driver is either "mongodb" or "storm". storm keeps items in a local file, which is
		// convenient for development, but none of its writes are captured as change events.
		Driver    string `json:"driver,omitempty" env:"STORE_DRIVER" envDefault:"mongodb"`
		StormPath string `json:"stormPath,omitempty" env:"STORE_STORM_PATH" envDefault:"items.db"`
	} `json:"store,omitempty"`

	MongoDB struct {
		Hosts     []string `json:"hosts,omitempty" env:"MONGODB_HOSTS" envDefault:"localhost"`
		Port      int      `json:"port,omitempty" env:"MONGODB_PORT"`
		Database  string   `json:"database,omitempty" env:"MONGODB_DATABASE" envDefault:"demo"`
		Namespace string   `json:"namespace,omitempty" env:"MONGODB_NAMESPACE"`
		Username  string   `json:"username,omitempty" env:"MONGODB_USERNAME"`
		Password  string   `json:"password,omitempty" env:"MONGODB_PASSWORD"`
		// AuthMechanism for MongoDB should be one of "SCRAM-SHA-256", "SCRAM-SHA-1", "MONGODB-CR", "PLAIN", "GSSAPI", "MONGODB-X509",
		AuthMechanism   string        `json:"authMechanism,omitempty" env:"MONGODB_AUTH_MECHANISM" envDefault:"SCRAM-SHA-1"`
		AuthDatabase    string        `json:"authDatabase,omitempty" env:"MONGODB_AUTH_DATABASE"`
		ReplicaSet      string        `json:"replicaSet,omitempty" env:"MONGODB_REPLICA_SET"`
		MaxConnIdleTime time.Duration `json:"maxIdleTimeout,omitempty" env:"MONGODB_IDLE_TIMEOUT" envDefault:"4m"`
		PingTimeout     time.Duration `json:"pingTimeout,omitempty" env:"MONGODB_PING_TIMEOUT" envDefault:"3s"`
	} `json:"mongoDB,omitempty"`

	Kafka struct {
		LogLevel int8 `json:"logLevel,omitempty" env:"KAFKA_LOG_LEVEL" envDefault:"1"` // loglevel 1 is >= error

		Seeds []string `json:"seeds,omitempty" env:"KAFKA_SEEDS" envDefault:"localhost:9092"`
		// Topics are the change data capture topics consumed by the item change subscriber
		Topics        []string `json:"topics,omitempty" env:"KAFKA_TOPICS" envDefault:"mongodb.demo.items"`
		ConsumerGroup string   `json:"consumerGroup,omitempty" env:"KAFKA_CONSUMERGROUP" envDefault:""`

		IdleTimeout            time.Duration `json:"idleTimeout,omitempty" env:"KAFKA_IDLETIMEOUT" envDefault:"3s"`
		RequestTimeoutOverhead time.Duration `json:"requestTimeoutOverhead,omitempty" env:"KAFKA_REQTIMEOUT" envDefault:"3s"`
		RetryTimeout           time.Duration `json:"retryTimeout,omitempty" env:"KAFKA_RETTIMEOUT" envDefault:"3s"`
		TxnTimeout             time.Duration `json:"txnTimeout,omitempty" env:"KAFKA_TXNTIMEOUT" envDefault:"3s"`
		RecordTimeout          time.Duration `json:"recordTimeout,omitempty" env:"KAFKA_RECTIMEOUT" envDefault:"3s"`
		SessionTimeout         time.Duration `json:"sessionTimeout,omitempty" env:"KAFKA_SESSTIMEOUT" envDefault:"60s"`
		CommitTimeout          time.Duration `json:"CommitTimeout,omitempty" env:"KAFKA_COMMTIMEOUT" envDefault:"5s"`

		AuthMechanism string `json:"authMechanism,omitempty" env:"KAFKA_AUTH_MECHANISM" envDefault:""`
		SASLUsername  string `json:"saslUsername,omitempty" env:"KAFKA_SASL_USERNAME" envDefault:""`
		SASLPassword  string `json:"saslPassword,omitempty" env:"KAFKA_SASL_PASSWORD" envDefault:""`
		CACertificate string `json:"caCertificate,omitempty" env:"KAFKA_CA_CERT" envDefault:""`

		FetchMaxBytes int32 `json:"fetchMaxBytes,omitempty" env:"KAFKA_FETCH_MAXBYTES" envDefault:"1048576"` // 1MiB

		EnableAutoCommit bool `json:"enableAutoCommit,omitempty" env:"KAFKA_AUTO_COMMIT" envDefault:"false"`
		EnableTLSDialer  bool `json:"enableTLSDialer,omitempty" env:"KAFKA_ENABLE_TLSDIALER" envDefault:"false"`
	} `json:"kafka,omitempty"`

	// ChangeRelay publishes item changes from a MongoDB change stream. Keep it disabled when
	// the Debezium connector is deployed, else every change would be published twice.
	ChangeRelay struct {
		Enabled bool   `json:"enabled,omitempty" env:"CHANGE_RELAY_ENABLED" envDefault:"false"`
		Topic   string `json:"topic,omitempty" env:"CHANGE_RELAY_TOPIC" envDefault:"mongodb.demo.items"`
		// SourceName is the logical server name put into every event, Debezium's topic prefix
		SourceName string `json:"sourceName,omitempty" env:"CHANGE_RELAY_SOURCE_NAME" envDefault:"mongodb"`
	} `json:"changeRelay,omitempty"`

	Log struct {
		// File enables writing logs to a size-rotated file, in addition to stdout
		File       string `json:"file,omitempty" env:"LOG_FILE" envDefault:""`
		MaxSizeMB  int    `json:"maxSizeMB,omitempty" env:"LOG_MAX_SIZE_MB" envDefault:"100"`
		MaxBackups int    `json:"maxBackups,omitempty" env:"LOG_MAX_BACKUPS" envDefault:"3"`
		MaxAgeDays int    `json:"maxAgeDays,omitempty" env:"LOG_MAX_AGE_DAYS" envDefault:"7"`
	} `json:"log,omitempty"`

	APM struct {
		Debug              bool    `json:"debug" env:"TRACES_DEBUG"`
		TracesSampleRate   float64 `json:"tracesSampleRate" env:"TRACES_SAMPLE_RATE"`
		TracesCollectorURL string  `json:"collectorUrl" env:"TRACES_COLLECTOR_URL"`
		MetricScrapePort   uint16  `json:"metricScrapePort" env:"METRIC_SCRAPE_PORT" envDefault:"2223"`
	} `json:"apm"`
}

func (cfg *Config) AppFullname() string {
	return fmt.Sprintf("%s%s", cfg.AppName, cfg.Version)
}

func (cfg *Config) validate() error {
	switch cfg.Store.Driver {
	case StoreDriverMongoDB, StoreDriverStorm:
	default:
		return fmt.Errorf("unsupported store driver '%s'", cfg.Store.Driver)
	}

	if cfg.ChangeRelay.Enabled && cfg.Store.Driver != StoreDriverMongoDB {
		return errors.New("change relay is only available with the mongodb store driver")
	}

	return nil
}

// Load reads the configuration from env, and if fileName is provided, overlays the values
// from the YAML file at path/fileName
func Load(path, fileName string) (*Config, error) {
	configs := Config{}

	err := env.Parse(&configs)
	if err != nil {
		return nil, fmt.Errorf("failed parsing env config: %w", err)
	}

	if fileName != "" {
		vip := viper.New()
		vip.AddConfigPath(path)
		vip.SetConfigName(fileName)
		vip.SetConfigType("yaml")

		err = vip.ReadInConfig()
		if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed reading config file: %w", err)
		}

		err = vip.Unmarshal(&configs)
		if err != nil {
			return nil, fmt.Errorf("fatal error when unmarshaling config file: %w", err)
		}
	}

	err = configs.validate()
	if err != nil {
		return nil, err
	}

	return &configs, nil
}
