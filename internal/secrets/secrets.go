// Package secrets stores the IMAP password and the Gemini API key in the
// OS keychain, with env variables as the headless fallback.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"ses-engine/internal/config"
)

const (
	// Service groups this app's secrets in the OS keychain.
	KeyringService = "ses-engine"

	EnvIMAPPassword = "SES_IMAP_PASSWORD"
	EnvGeminiAPIKey = "GOOGLE_API_KEY"
)

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := strings.TrimSpace(os.Getenv(EnvIMAPPassword)); pw != "" {
		return pw, nil
	}
	return "", errors.New("IMAP password not found (set it in the keychain or via " + EnvIMAPPassword + ")")
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"ses-engine:imap:%s@%s",
		cfg.Email.Username,
		cfg.Email.IMAPHost,
	)
}

const geminiAccount = "ses-engine:gemini:api-key"

func GetGeminiAPIKey() (string, error) {
	key, err := keyring.Get(KeyringService, geminiAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); key != "" {
		return key, nil
	}
	return "", errors.New("Gemini API key not found (set it in the keychain or via " + EnvGeminiAPIKey + ")")
}

func SetGeminiAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, geminiAccount, key)
}

func DeleteGeminiAPIKey() error {
	return keyring.Delete(KeyringService, geminiAccount)
}
