package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
		LogFile string `yaml:"log_file"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"app"`

	Email struct {
		IMAPHost string `yaml:"imap_host"`
		IMAPPort int    `yaml:"imap_port"`
		Username string `yaml:"username"`
		// Password is best left empty here; the keychain or the
		// ZILLOWBOT_EMAIL_PASSWORD env var are checked when it is.
		Password        string `yaml:"password"`
		Mailbox         string `yaml:"mailbox"`
		Sender          string `yaml:"sender"`
		SubjectContains string `yaml:"subject_contains"`
	} `yaml:"email"`

	Polling struct {
		IntervalSeconds         int `yaml:"interval_seconds"`
		IterationTimeoutSeconds int `yaml:"iteration_timeout_seconds"`
	} `yaml:"polling"`

	Discord struct {
		// Token is best left empty here; see Email.Password.
		Token             string `yaml:"token"`
		ChannelID         string `yaml:"channel_id"`
		MessagesPerMinute int    `yaml:"messages_per_minute"`
	} `yaml:"discord"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 38481
	}
	if c.Email.IMAPHost == "" {
		c.Email.IMAPHost = "imap.gmail.com"
	}
	if c.Email.IMAPPort == 0 {
		c.Email.IMAPPort = 993
	}
	if c.Email.Mailbox == "" {
		c.Email.Mailbox = "INBOX"
	}
	if c.Email.Sender == "" {
		c.Email.Sender = "rental-instant-updates@mail.zillow.com"
	}
	if c.Email.SubjectContains == "" {
		c.Email.SubjectContains = "New Listing"
	}
	if c.Polling.IntervalSeconds == 0 {
		c.Polling.IntervalSeconds = 600
	}
	if c.Polling.IterationTimeoutSeconds == 0 {
		c.Polling.IterationTimeoutSeconds = 120
	}
	if c.Discord.MessagesPerMinute == 0 {
		c.Discord.MessagesPerMinute = 30
	}
}
