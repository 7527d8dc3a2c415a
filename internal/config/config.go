// Package config carga la configuración del servicio desde YAML, con
// overrides por variables de entorno (prefijo HEIMDALL_) y defaults sanos.
package config

import (
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
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Issuer struct {
		// ID es el claim iss de todos los ATKs emitidos.
		ID string `yaml:"id"`
		// TokenTTL es la vida del token (claim exp - iat).
		TokenTTL time.Duration `yaml:"token_ttl"`
	} `yaml:"issuer"`

	Keys struct {
		Dir string `yaml:"dir"`
		KID string `yaml:"kid"`
	} `yaml:"keys"`

	Storage struct {
		// mongo | postgres | memory
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Mongo  struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Redis struct {
		Addr string `yaml:"addr"` // vacío = sin redis (limiter y cache en memoria)
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		MaxRequests int           `yaml:"max_requests"`
		Window      time.Duration `yaml:"window"`
	} `yaml:"rate"`

	StatusCache struct {
		TTL time.Duration `yaml:"ttl"` // cache del estado Revoked en el endpoint público
	} `yaml:"status_cache"`

	// Auth mapea API keys a identidades owner (agent builders).
	// La identidad autenticada viene siempre de acá, nunca del body.
	Auth struct {
		APIKeys map[string]string `yaml:"api_keys"` // key -> owner id
	} `yaml:"auth"`

	Policy struct {
		SupportedModels     []string          `yaml:"supported_models"`
		StandardPermissions []string          `yaml:"standard_permissions"`
		DefaultTrustTags    map[string]string `yaml:"default_trust_tags"`
		AllowedTrustTagKeys []string          `yaml:"allowed_trust_tag_keys"`
	} `yaml:"policy"`
}

// Load lee el YAML (opcional: path vacío o inexistente arranca con
// defaults), aplica overrides de entorno y defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Issuer.ID == "" {
		c.Issuer.ID = "aif://heimdall.example.com"
	}
	if c.Issuer.TokenTTL == 0 {
		c.Issuer.TokenTTL = 15 * time.Minute
	}
	if c.Keys.Dir == "" {
		c.Keys.Dir = "keys"
	}
	if c.Keys.KID == "" {
		c.Keys.KID = "heimdall-key-01"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mongo"
	}
	if c.Storage.Mongo.URI == "" {
		c.Storage.Mongo.URI = "mongodb://localhost:27017/"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "heimdall"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.StatusCache.TTL == 0 {
		c.StatusCache.TTL = 30 * time.Second
	}
	if len(c.Policy.SupportedModels) == 0 {
		c.Policy.SupportedModels = defaultSupportedModels
	}
	if len(c.Policy.StandardPermissions) == 0 {
		c.Policy.StandardPermissions = defaultStandardPermissions
	}
	if c.Policy.DefaultTrustTags == nil {
		c.Policy.DefaultTrustTags = defaultTrustTags
	}
	if len(c.Policy.AllowedTrustTagKeys) == 0 {
		c.Policy.AllowedTrustTagKeys = defaultAllowedTrustTagKeys
	}
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("HEIMDALL_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("HEIMDALL_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("HEIMDALL_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("HEIMDALL_ISSUER_ID"); ok {
		c.Issuer.ID = v
	}
	if v, ok := getEnvDur("HEIMDALL_TOKEN_TTL"); ok {
		c.Issuer.TokenTTL = v
	}
	if v, ok := getEnvStr("HEIMDALL_KEYS_DIR"); ok {
		c.Keys.Dir = v
	}
	if v, ok := getEnvStr("HEIMDALL_KEY_ID"); ok {
		c.Keys.KID = v
	}
	if v, ok := getEnvStr("HEIMDALL_STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("HEIMDALL_STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("HEIMDALL_MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("HEIMDALL_MONGO_DATABASE"); ok {
		c.Storage.Mongo.Database = v
	}
	if v, ok := getEnvStr("HEIMDALL_REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("HEIMDALL_REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvBool("HEIMDALL_RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("HEIMDALL_RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvDur("HEIMDALL_RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvKVList("HEIMDALL_API_KEYS", ","); ok {
		c.Auth.APIKeys = v
	}
	if v, ok := getEnvCSV("HEIMDALL_SUPPORTED_MODELS"); ok {
		c.Policy.SupportedModels = v
	}
	if v, ok := getEnvCSV("HEIMDALL_STANDARD_PERMISSIONS"); ok {
		c.Policy.StandardPermissions = v
	}
	if v, ok := getEnvKVList("HEIMDALL_DEFAULT_TRUST_TAGS", ","); ok {
		c.Policy.DefaultTrustTags = v
	}
	if v, ok := getEnvCSV("HEIMDALL_ALLOWED_TRUST_TAG_KEYS"); ok {
		c.Policy.AllowedTrustTagKeys = v
	}
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

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// parse env of form "k1=v1<sep>k2=v2" into map
func parseKVList(s, sep string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]string{}
	}
	items := strings.Split(s, sep)
	out := make(map[string]string, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if i := strings.IndexRune(it, '='); i > 0 {
			k := strings.TrimSpace(it[:i])
			v := strings.TrimSpace(it[i+1:])
			if k != "" && v != "" {
				out[k] = v
			}
		}
	}
	return out
}

func getEnvKVList(key, sep string) (map[string]string, bool) {
	if s, ok := getEnvStr(key); ok {
		return parseKVList(s, sep), true
	}
	return nil, false
}
