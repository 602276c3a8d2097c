package session

import (
	"fmt"
	"os"
	"regexp"

	"github.com/matheus3301/imsg/internal/config"
)

// DefaultName is used when neither a flag, the environment nor the config
// names a session.
const DefaultName = "main"

// EnvVar overrides the configured default session.
const EnvVar = "IMSG_SESSION"

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Resolve picks the session name from, in order, the --session flag, the
// IMSG_SESSION environment variable, default_session in config.toml and
// DefaultName. The chosen name is validated.
func Resolve(flagValue string) (string, error) {
	name := pick(flagValue, os.Getenv(EnvVar), configuredDefault())
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateName reports whether name can be used as a directory under
// ~/.imsg/sessions.
func ValidateName(name string) error {
	if namePattern.MatchString(name) {
		return nil
	}
	return fmt.Errorf("invalid session name %q: want 1-64 of [a-z0-9_-]", name)
}

func configuredDefault() string {
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		return ""
	}
	return cfg.DefaultSession
}

func pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return DefaultName
}
