package cfg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	IMAP          IMAP               `yaml:"imap"`
	SMTP          SMTP               `yaml:"smtp"`
	ArchiveFolder string             `yaml:"archiveFolder"`
	HTTP          HTTP               `yaml:"http"`
	Profiles      Profiles           `yaml:"profiles"`
	Accounts      map[string]Account `yaml:"accounts"`
}

type IMAP struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	TLS                 *bool         `yaml:"tls"`
	SkipTLSVerification bool          `yaml:"skipTLSVerification"`
	ConnectTimeout      time.Duration `yaml:"connectTimeout"`
	CommandTimeout      time.Duration `yaml:"commandTimeout"`
	KeepAlive           time.Duration `yaml:"keepAlive"`
	Compress            bool          `yaml:"compress"`
}

type SMTP struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	TLS                 bool          `yaml:"tls"`
	StartTLS            *bool         `yaml:"startTLS"`
	SkipTLSVerification bool          `yaml:"skipTLSVerification"`
	ConnectTimeout      time.Duration `yaml:"connectTimeout"`
	// RateLimit of the message upload in bytes per second, 0 means no limit
	RateLimit float64 `yaml:"rateLimit"`
	Burst     int     `yaml:"burst"`
}

type HTTP struct {
	Listen         string        `yaml:"listen"`
	CORSOrigins    []string      `yaml:"corsOrigins"`
	SessionTTL     time.Duration `yaml:"sessionTTL"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	SecureCookie   bool          `yaml:"secureCookie"`
}

type Profiles struct {
	File string `yaml:"file"`
}

type Account struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

const (
	DefaultIMAPPort       = 993
	DefaultSMTPPort       = 587
	DefaultConnectTimeout = 30 * time.Second
	DefaultCommandTimeout = 60 * time.Second
	DefaultKeepAlive      = 10 * time.Second
	DefaultArchiveFolder  = "Archive"
	DefaultListen         = ":3000"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultRequestTimeout = 60 * time.Second
	DefaultProfilesFile   = "db/profiles.db"
	DefaultBurst          = 4096
)

func newConfig() *Config {
	return &Config{}
}

// LoadFromFile loads the configuration from the file
func LoadFromFile(fileName string) (*Config, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	return loadConfig(file)
}

// loadConfig from a io.ReadCloser
func loadConfig(reader io.ReadCloser) (*Config, error) {
	defer reader.Close()
	decoder := yaml.NewDecoder(reader)
	config := newConfig()
	err := decoder.Decode(config)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	config.setDefaults()
	err = validateConfiguration(config)
	if err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) setDefaults() {
	if c.IMAP.Port == 0 {
		c.IMAP.Port = DefaultIMAPPort
	}
	if c.IMAP.TLS == nil {
		c.IMAP.TLS = boolPtr(true)
	}
	if c.IMAP.ConnectTimeout == 0 {
		c.IMAP.ConnectTimeout = DefaultConnectTimeout
	}
	if c.IMAP.CommandTimeout == 0 {
		c.IMAP.CommandTimeout = DefaultCommandTimeout
	}
	if c.IMAP.KeepAlive == 0 {
		c.IMAP.KeepAlive = DefaultKeepAlive
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = c.IMAP.Host
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.SMTP.StartTLS == nil {
		c.SMTP.StartTLS = boolPtr(!c.SMTP.TLS)
	}
	if c.SMTP.ConnectTimeout == 0 {
		c.SMTP.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SMTP.Burst == 0 {
		c.SMTP.Burst = DefaultBurst
	}
	if c.ArchiveFolder == "" {
		c.ArchiveFolder = DefaultArchiveFolder
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListen
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.HTTP.SessionTTL == 0 {
		c.HTTP.SessionTTL = DefaultSessionTTL
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = DefaultRequestTimeout
	}
	if c.Profiles.File == "" {
		c.Profiles.File = DefaultProfilesFile
	}
	if c.Accounts == nil {
		c.Accounts = make(map[string]Account)
	}
}

func validateConfiguration(config *Config) error {
	if config.IMAP.Host == "" {
		return errors.New("missing imap host")
	}
	if config.IMAP.Port < 1 || config.IMAP.Port > 65535 {
		return fmt.Errorf("invalid imap port %d", config.IMAP.Port)
	}
	if config.SMTP.Port < 1 || config.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp port %d", config.SMTP.Port)
	}
	if config.SMTP.TLS && *config.SMTP.StartTLS {
		return errors.New("smtp: tls and startTLS cannot be both enabled")
	}
	if config.SMTP.RateLimit < 0 {
		return fmt.Errorf("invalid smtp rate limit %v", config.SMTP.RateLimit)
	}
	return nil
}

// Address returns the host:port of the IMAP server
func (i IMAP) Address() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

// UseTLS returns true for implicit TLS (IMAPS)
func (i IMAP) UseTLS() bool {
	return i.TLS == nil || *i.TLS
}

// Address returns the host:port of the SMTP server
func (s SMTP) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// UseStartTLS returns true when the connection must be upgraded after the greeting
func (s SMTP) UseStartTLS() bool {
	return s.StartTLS != nil && *s.StartTLS
}

func boolPtr(value bool) *bool {
	return &value
}
