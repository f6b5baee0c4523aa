package infra

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "COURSEGW"

// runtime environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// progress store backends
const (
	ProgressStoreRemote = "remote"
	ProgressStoreSQL    = "sql"
)

// AppConfig App option object
type AppConfig struct {
	AppID          string        `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`                                      // bind listen port
	Env            string        `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	SessionTimeout time.Duration `mapstructure:"session_timeout" json:"session_timeout" yaml:"session_timeout"`
	SessionRefresh time.Duration `mapstructure:"session_refresh" json:"session_refresh" yaml:"session_refresh"` // session refresh threshold
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`
	AllowOrigins   []string      `mapstructure:"allow_origins" json:"allow_origins" yaml:"allow_origins"` // CORS and websocket origins, "*" for any
	Remote         struct {
		BaseURL string        `mapstructure:"base_url" json:"base_url" yaml:"base_url" validate:"required,url"` // course platform API root
		Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	} `mapstructure:"remote" json:"remote" yaml:"remote"`
	Progress struct {
		Store        string        `mapstructure:"store" json:"store" yaml:"store" validate:"oneof=remote sql"`
		GateQuizView bool          `mapstructure:"gate_quiz_view" json:"gate_quiz_view" yaml:"gate_quiz_view"` // block entering the quiz view until all lessons are done
		RetryDelay   time.Duration `mapstructure:"retry_delay" json:"retry_delay" yaml:"retry_delay"`
		SaveTimeout  time.Duration `mapstructure:"save_timeout" json:"save_timeout" yaml:"save_timeout"`
	} `mapstructure:"progress" json:"progress" yaml:"progress"`
	Database struct {
		Driver   string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"omitempty,oneof=mysql postgres"` // driver name
		Host     string `mapstructure:"host" json:"host" yaml:"host"`                                                 // server host
		MaxConn  int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn"`                                        // maximum opening connections number
		Password string `mapstructure:"password" json:"password" yaml:"password"`                                     // db password
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`                                                 // server port
		Protocol string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"`  // connection protocol, eg.tcp
		Query    string `mapstructure:"query" json:"query" yaml:"query"`                                              // DSN query parameter
		Schema   string `mapstructure:"schema" json:"schema" yaml:"schema"`                                           // use schema
		User     string `mapstructure:"username" json:"username" yaml:"username"`                                     // db username
	} `mapstructure:"database" json:"database" yaml:"database"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	Security struct {
		IDLength  int    `mapstructure:"id_length" json:"id_length" yaml:"id_length" validate:"min=8"` // length of generated session ID
		JWTMethod string `mapstructure:"jwt_method" json:"jwt_method" yaml:"jwt_method" validate:"oneof=HS256 HS512"`
		JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"jwt_secret" validate:"required"`
		TokenName string `mapstructure:"token_name" json:"token_name" yaml:"token_name" validate:"required"` // jwt token name set in cookie
	} `mapstructure:"security" json:"security" yaml:"security"`
	KVStore struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"` // bind host address
		Port     int    `mapstructure:"port" json:"port" yaml:"port"` // bind listen port
		Password string `mapstructure:"password" json:"-" yaml:"password"`
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// a missing .env is fine, flags and env vars still apply
	_ = godotenv.Load()

	// app
	pflag.String("host", "", "binding address")
	pflag.String("app_id", "course-gateway", "application identifier")
	pflag.String("env", EnvDevelopment, "runtime environment, can be 'development' or 'production'")
	pflag.Int("port", 8081, "listening port")
	pflag.Duration("session_timeout", 30*time.Minute, "JWT lifetime(m, s and h units are supported), eg.30m")
	pflag.Duration("session_refresh", 5*time.Minute, "session refresh threshold(m, s and h units are supported), eg.5m")
	pflag.Duration("request_timeout", 30*time.Second, "abort requests running longer than this")
	pflag.StringSlice("allow_origins", []string{"http://127.0.0.1:8080"}, "CORS allowed origins")

	// remote platform
	pflag.String("remote.base_url", "http://localhost:8080/api", "course platform API base url")
	pflag.Duration("remote.timeout", 15*time.Second, "timeout of a single remote call")

	// progress
	pflag.String("progress.store", ProgressStoreRemote, "where progress snapshots are persisted, 'remote' or 'sql'")
	pflag.Bool("progress.gate_quiz_view", false, "refuse to advance into the quiz until every lesson is completed")
	pflag.Duration("progress.retry_delay", 300*time.Millisecond, "wait before retrying a failed progress write")
	pflag.Duration("progress.save_timeout", 10*time.Second, "timeout of a single progress write")

	// database
	pflag.String("database.driver", "mysql", "database driver to use when progress.store=sql")
	pflag.String("database.host", "127.0.0.1", "database host")
	pflag.Int("database.port", 3306, "database server port")
	pflag.String("database.protocol", "", "connection protocol(if mysql is used, this flag must be set), eg.tcp")
	pflag.String("database.username", "", "database username")
	pflag.String("database.password", "", "database password")
	pflag.String("database.schema", "", "database schema")
	pflag.String("database.query", "", `additional DSN query parameters('?' is auto prefixed), eg. "parseTime=true"`)
	pflag.Int32("database.maxconn", 20, "max connection count")

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// security
	pflag.Int("security.id_length", 24, "length of generated session IDs")
	pflag.String("security.jwt_method", "HS256", "hash algorithm used for JWT auth")
	pflag.String("security.jwt_secret", "", "JWT secret (required)")
	pflag.String("security.token_name", "cgw_token", "cookie name to store the token")

	// kv storage
	pflag.String("kv.host", "127.0.0.1", "kv host")
	pflag.Int("kv.port", 6379, "kv server port")
	pflag.String("kv.password", "", "kv server password")

	// DevOp
	pflag.Bool("devop.apm", false, "enable apm metrics")

	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config = new(AppConfig)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" || name == "" {
			return ""
		}
		return name
	})
	err := validate.Struct(config)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		log.Fatalf("Failed to validate config: %s", err)
	}

	var msg []string
	if err != nil {
		for _, field := range err.(validator.ValidationErrors) {
			namespace := field.Namespace()
			fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
			switch field.Tag() {
			case "required":
				msg = append(msg, fmt.Sprintf("%s is required", fieldName))
			case "oneof":
				msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
			case "url":
				msg = append(msg, fmt.Sprintf("%s must be a valid url", fieldName))
			case "min":
				msg = append(msg, fmt.Sprintf("%s must be at least %s", fieldName, field.Param()))
			}
		}
	}
	if config.Progress.Store == ProgressStoreSQL {
		if config.Database.Driver == "" || config.Database.Schema == "" || config.Database.User == "" {
			msg = append(msg, "database.driver, database.schema and database.username are required when progress.store=sql")
		}
	}
	if len(msg) > 0 {
		return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
	}
	return nil
}
