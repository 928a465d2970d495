package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Anchoring struct {
		IPFSAPIURL   string `yaml:"ipfsApiUrl"`
		LedgerURL    string `yaml:"ledgerUrl"`
		LedgerAPIKey string `yaml:"ledgerApiKey"`
	} `yaml:"anchoring"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Signing struct {
		Backend     string `yaml:"backend"` // keyring, file, env
		KeyFile     string `yaml:"keyFile"`
		ServiceName string `yaml:"serviceName"`
	} `yaml:"signing"`

	VoiceDir string `yaml:"voiceDir"` // local blob fallback when minio is unset
}

// Load reads the yaml config file, then applies env overrides. A missing file
// is fine: everything can come from the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}
	applyEnv(&cfg)
	cfg.defaults()
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setIfEnv(&cfg.Server.Port, "SERVICE_PORT")
	setIfEnv(&cfg.Database.URL, "DATABASE_URL")
	setIfEnv(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	setIfEnv(&cfg.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setIfEnv(&cfg.Minio.SecretKey, "MINIO_SECRET_KEY")
	setIfEnv(&cfg.Minio.BucketName, "MINIO_BUCKET")
	setIfEnv(&cfg.Anchoring.IPFSAPIURL, "IPFS_API_URL")
	setIfEnv(&cfg.Anchoring.LedgerURL, "LEDGER_ANCHOR_URL")
	setIfEnv(&cfg.Anchoring.LedgerAPIKey, "LEDGER_ANCHOR_API_KEY")
	setIfEnv(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setIfEnv(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setIfEnv(&cfg.Signing.Backend, "SIGNING_BACKEND")
	setIfEnv(&cfg.Signing.KeyFile, "SIGNING_KEY_FILE")
	setIfEnv(&cfg.VoiceDir, "VOICE_DIR")
}

func (cfg *Config) defaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8084"
	}
	if cfg.Signing.Backend == "" {
		cfg.Signing.Backend = "file"
	}
	if cfg.Signing.KeyFile == "" {
		cfg.Signing.KeyFile = "signing-key.pem"
	}
	if cfg.Signing.ServiceName == "" {
		cfg.Signing.ServiceName = "lexplain-evidence"
	}
	if cfg.VoiceDir == "" {
		cfg.VoiceDir = "voice-consents"
	}
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
