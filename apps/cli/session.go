package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// The session token lives in the user config dir so subsequent commands stay
// logged in.
func sessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving config dir")
	}
	return filepath.Join(dir, "shule", "session"), nil
}

func saveSessionToken(token string) error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return errors.Wrap(err, "creating config dir")
	}
	return errors.Wrap(os.WriteFile(p, []byte(token), 0o600), "writing session")
}

func loadSessionToken() (string, error) {
	p, err := sessionPath()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
