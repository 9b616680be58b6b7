package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// Name es el issuer que se estampa en cada token emitido.
		Name         string        `yaml:"name"`
		TLSCertFile  string        `yaml:"tls_cert_file"`
		TLSKeyFile   string        `yaml:"tls_key_file"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver"` // postgres | memory
		DSN    string `yaml:"dsn"`
		// RootCAFile: CA para verificar el servidor Postgres. Si no se puede leer
		// se sigue sin ella (warning).
		RootCAFile     string `yaml:"root_ca_file"`
		ConnectRetries int    `yaml:"connect_retries"`
		Postgres       struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	OAuth struct {
		// CodeTTL limita la edad de un authorization code al canjearlo. 0 = sin límite.
		CodeTTL time.Duration `yaml:"code_ttl"`
		// LoginURL es el destino del redirect de /oauth2/authorize.
		LoginURL string `yaml:"login_url"`
	} `yaml:"oauth"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Flags struct {
		// Migrate aplica el schema embebido al arrancar (BOOTSTRAP=true).
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

const (
	defaultAddr         = ":8080"
	defaultName         = "johnauth"
	defaultCodeTTL      = 10 * time.Minute
	defaultLoginURL     = "http://localhost:8082/auth"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultRetries      = 5
)

// Load lee el YAML en path, aplica defaults, overrides por env y valida.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	// code_ttl explícito en 0 tiene que sobrevivir a los defaults
	c.OAuth.CodeTTL = -1
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return finish(&c)
}

// LoadFromEnv arma la configuración solo con defaults + variables de entorno.
func LoadFromEnv() (*Config, error) {
	var c Config
	c.OAuth.CodeTTL = -1
	return finish(&c)
}

func finish(c *Config) (*Config, error) {
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.Name == "" {
		c.Server.Name = defaultName
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Storage.ConnectRetries == 0 {
		c.Storage.ConnectRetries = defaultRetries
	}
	if c.OAuth.CodeTTL < 0 {
		c.OAuth.CodeTTL = defaultCodeTTL
	}
	if c.OAuth.LoginURL == "" {
		c.OAuth.LoginURL = defaultLoginURL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_NAME"); ok {
		c.Server.Name = v
	}
	if v, ok := getEnvStr("SERVER_TLS_CERT_FILE"); ok {
		c.Server.TLSCertFile = v
	}
	if v, ok := getEnvStr("SERVER_TLS_KEY_FILE"); ok {
		c.Server.TLSKeyFile = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_ROOT_CA_FILE"); ok {
		c.Storage.RootCAFile = v
	}
	if v, ok := getEnvInt("STORAGE_CONNECT_RETRIES"); ok {
		c.Storage.ConnectRetries = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// OAUTH
	if v, ok := getEnvDur("OAUTH_CODE_TTL"); ok {
		c.OAuth.CodeTTL = v
	}
	if v, ok := getEnvStr("OAUTH_LOGIN_URL"); ok {
		c.OAuth.LoginURL = v
	}

	// LOG / METRICS / FLAGS
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
	// BOOTSTRAP=true es el alias histórico de FLAGS_MIGRATE
	if v, ok := getEnvBool("BOOTSTRAP"); ok && v {
		c.Flags.Migrate = true
	}
}

// Validate chequea combinaciones que no permiten arrancar.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for driver postgres"))
		}
	case "memory":
		if c.App.Env == "prod" {
			errs = append(errs, errors.New("storage.driver memory is not allowed in prod"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported (postgres|memory)", c.Storage.Driver))
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			errs = append(errs, fmt.Errorf("storage.postgres.conn_max_lifetime: %w", err))
		}
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file go together"))
	}
	if c.OAuth.CodeTTL < 0 {
		errs = append(errs, errors.New("oauth.code_ttl must be >= 0"))
	}
	if strings.TrimSpace(c.Server.Name) == "" {
		errs = append(errs, errors.New("server.name must not be blank"))
	}
	return errors.Join(errs...)
}

// ConnMaxLifetime retorna la duración parseada (0 si no está configurada).
func (c *Config) ConnMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime)
	return d
}

// TLSEnabled indica si el server HTTP debe servir con TLS.
func (c *Config) TLSEnabled() bool {
	return c.Server.TLSCertFile != "" && c.Server.TLSKeyFile != ""
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
