// Package secrets resolves the deployment's two credentials, keyring
// first with an env fallback for headless hosts.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "jobsync"

	EnvWebhookSecret     = "JOBSYNC_WEBHOOK_SECRET"
	EnvRegistrationToken = "JOBSYNC_REGISTRATION_TOKEN"

	DefaultWebhookAccount      = "jobsync:webhook"
	DefaultRegistrationAccount = "jobsync:registration"
)

var ErrNotFound = errors.New("secrets: not found in keyring or environment")

// WebhookAccount resolves the keyring account for the webhook shared
// secret, falling back to the default when the config leaves it empty.
func WebhookAccount(account string) string {
	if strings.TrimSpace(account) == "" {
		return DefaultWebhookAccount
	}
	return account
}

// RegistrationAccount is the counterpart for the registration bearer
// token.
func RegistrationAccount(account string) string {
	if strings.TrimSpace(account) == "" {
		return DefaultRegistrationAccount
	}
	return account
}

func get(account, envVar string) (string, error) {
	if strings.TrimSpace(account) != "" {
		v, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// Set stores value under account in the OS keychain.
func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secrets: value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

// Delete removes account from the OS keychain. Deleting an absent entry
// is a no-op so rotation scripts can call it unconditionally.
func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// GetWebhookSecret returns the shared secret the remote service signs
// notification bodies with.
func GetWebhookSecret(account string) (string, error) {
	return get(WebhookAccount(account), EnvWebhookSecret)
}

// GetRegistrationToken returns the bearer credential for the remote
// registration API.
func GetRegistrationToken(account string) (string, error) {
	return get(RegistrationAccount(account), EnvRegistrationToken)
}
