// Package secrets keeps the IMAP password and Discord bot token in the
// OS keychain so neither has to live in the config file.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the relay's secrets in the OS keychain.
const KeyringService = "zillowbot"

// IMAPAccount names the keychain entry for a mailbox credential.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("zillowbot:imap:%s@%s", username, host)
}

// DiscordAccount names the keychain entry for the bot token.
func DiscordAccount() string {
	return "zillowbot:discord:token"
}

func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	val, err := keyring.Get(KeyringService, account)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(val) == "" {
		return "", errors.New("keyring entry is empty")
	}
	return val, nil
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
