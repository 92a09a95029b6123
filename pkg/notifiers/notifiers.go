package notifiers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported notifier types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypeHTTP   = "http"
	TypePubSub = "pubsub"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the notifiers configuration file.
type configFile struct {
	Notifiers []NotifierConfig `json:"notifiers" yaml:"notifiers"`
}

// NotifierConfig represents a single notifier entry declared in config files.
type NotifierConfig struct {
	ID      string        `json:"id" yaml:"id"`
	Type    string        `json:"type" yaml:"type"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	SQS     *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig    `json:"sns" yaml:"sns"`
	HTTP    *HTTPConfig   `json:"http" yaml:"http"`
	PubSub  *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials holds optional static credentials; when empty the default
// AWS credential chain is used.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSConfig holds AWS SQS specific settings.
type SQSConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSConfig holds AWS SNS specific settings.
type SNSConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// HTTPConfig holds generic webhook settings.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// ConfigRegistry materializes notifier definitions loaded from config files.
type ConfigRegistry struct {
	mu        sync.RWMutex
	notifiers []NotifierConfig
	idx       map[string]NotifierConfig
}

// LoadRegistry loads the notifier registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("notifiers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notifiers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read notifiers file: %w", err)
	}

	parsed, err := parseNotifierRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	reg := &ConfigRegistry{
		notifiers: make([]NotifierConfig, len(parsed.Notifiers)),
		idx:       make(map[string]NotifierConfig, len(parsed.Notifiers)),
	}

	for i := range parsed.Notifiers {
		cfg := sanitizeNotifierConfig(parsed.Notifiers[i])
		if err := validateNotifierConfig(cfg); err != nil {
			return nil, fmt.Errorf("notifiers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate notifier id %q", cfg.ID)
		}
		reg.notifiers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parseNotifierRegistry decodes the notifiers file content by extension,
// trying every known format when the extension is missing.
func parseNotifierRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err != nil {
			lastErr = fmt.Errorf("decode %s notifiers: %w", d.name, err)
			continue
		}
		return reg, nil
	}
	if lastErr != nil {
		return configFile{}, lastErr
	}
	return configFile{}, errors.New("notifiers file format not recognized (expected YAML or JSON)")
}

// sanitizeNotifierConfig trims and normalizes the notifier config fields.
func sanitizeNotifierConfig(cfg NotifierConfig) NotifierConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = strings.TrimSpace(c.QueueURL)
		c.Region = strings.TrimSpace(c.Region)
		c.Endpoint = strings.TrimSpace(c.Endpoint)
		c.Credentials = sanitizeCredentials(c.Credentials)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		c.TopicARN = strings.TrimSpace(c.TopicARN)
		c.Region = strings.TrimSpace(c.Region)
		c.Endpoint = strings.TrimSpace(c.Endpoint)
		c.Credentials = sanitizeCredentials(c.Credentials)
		cfg.SNS = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		c.ProjectID = strings.TrimSpace(c.ProjectID)
		c.Topic = strings.TrimSpace(c.Topic)
		c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
		c.Endpoint = strings.TrimSpace(c.Endpoint)
		cfg.PubSub = &c
	}

	return cfg
}

func sanitizeCredentials(c *AWSCredentials) *AWSCredentials {
	if c == nil {
		return nil
	}
	out := AWSCredentials{
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		SessionToken:    strings.TrimSpace(c.SessionToken),
	}
	if out.AccessKeyID == "" && out.SecretAccessKey == "" {
		return nil
	}
	return &out
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateNotifierConfig checks that required fields are present.
func validateNotifierConfig(cfg NotifierConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for notifier %q", cfg.ID)
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("sqs config required for notifier %q", cfg.ID)
		}
		if cfg.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.uri is required for notifier %q", cfg.ID)
		}
		if cfg.SQS.Region == "" {
			return fmt.Errorf("sqs.region is required for notifier %q", cfg.ID)
		}
		return validateCredentials(cfg.ID, "sqs", cfg.SQS.Credentials)
	case TypeSNS:
		if cfg.SNS == nil {
			return fmt.Errorf("sns config required for notifier %q", cfg.ID)
		}
		if cfg.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for notifier %q", cfg.ID)
		}
		if cfg.SNS.Region == "" {
			return fmt.Errorf("sns.region is required for notifier %q", cfg.ID)
		}
		return validateCredentials(cfg.ID, "sns", cfg.SNS.Credentials)
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for notifier %q", cfg.ID)
		}
		if cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for notifier %q", cfg.ID)
		}
	case TypePubSub:
		if cfg.PubSub == nil {
			return fmt.Errorf("pubsub config required for notifier %q", cfg.ID)
		}
		if cfg.PubSub.ProjectID == "" {
			return fmt.Errorf("pubsub.project_id is required for notifier %q", cfg.ID)
		}
		if cfg.PubSub.Topic == "" {
			return fmt.Errorf("pubsub.topic is required for notifier %q", cfg.ID)
		}
	default:
		return fmt.Errorf("unsupported type %q for notifier %q", cfg.Type, cfg.ID)
	}
	return nil
}

func validateCredentials(id, section string, c *AWSCredentials) error {
	if c == nil {
		return nil
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("%s.credentials needs both access_key_id and secret_access_key for notifier %q", section, id)
	}
	return nil
}

// ByID returns the notifier config by id.
func (r *ConfigRegistry) ByID(id string) (NotifierConfig, bool) {
	if r == nil {
		return NotifierConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return NotifierConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured notifiers.
func (r *ConfigRegistry) All() []NotifierConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NotifierConfig, len(r.notifiers))
	copy(out, r.notifiers)
	return out
}

// Enabled returns notifiers that are enabled.
func (r *ConfigRegistry) Enabled() []NotifierConfig {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]NotifierConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg NotifierConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
