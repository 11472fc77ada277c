package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validate checks everything the relay needs to start. Credentials are
// not required here; they may still arrive from the keychain.
func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if strings.TrimSpace(cfg.Email.IMAPHost) == "" {
		errs = append(errs, "email.imap_host is required")
	}
	if cfg.Email.IMAPPort <= 0 || cfg.Email.IMAPPort > 65535 {
		errs = append(errs, "email.imap_port must be 1..65535")
	}
	if strings.TrimSpace(cfg.Email.Username) == "" {
		errs = append(errs, "email.username is required")
	}
	if strings.TrimSpace(cfg.Email.Mailbox) == "" {
		errs = append(errs, "email.mailbox is required")
	}
	if strings.TrimSpace(cfg.Email.Sender) == "" {
		errs = append(errs, "email.sender is required")
	}
	if strings.TrimSpace(cfg.Discord.ChannelID) == "" {
		errs = append(errs, "discord.channel_id is required")
	}
	if cfg.Polling.IntervalSeconds <= 0 {
		errs = append(errs, "polling.interval_seconds must be > 0")
	}
	if cfg.Polling.IterationTimeoutSeconds <= 0 {
		errs = append(errs, "polling.iteration_timeout_seconds must be > 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// SaveAtomic writes the config via tmp+rename, keeping the previous
// file as .bak.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
