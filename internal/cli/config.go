package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Config holds CLI configuration
type Config struct {
	ServerURL       string
	Fingerprint     string
	FingerprintFile string
	Output          string
	Verbose         bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:       getEnvOrDefault("ROOMCTL_SERVER", "http://localhost:8080"),
		Fingerprint:     os.Getenv("ROOMCTL_FINGERPRINT"),
		FingerprintFile: getEnvOrDefault("ROOMCTL_FINGERPRINT_FILE", defaultFingerprintFile()),
		Output:          "text",
		Verbose:         false,
	}
}

// LoadFingerprint reads the fingerprint from file if not already set. A new
// fingerprint is generated and saved on first use, so the same identity is
// presented on every invocation.
func (c *Config) LoadFingerprint() error {
	if c.Fingerprint != "" {
		return nil
	}

	data, err := os.ReadFile(c.FingerprintFile)
	if err == nil {
		if fp := strings.TrimSpace(string(data)); fp != "" {
			c.Fingerprint = fp
			return nil
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	return c.SaveFingerprint(uuid.NewString())
}

// SaveFingerprint saves the fingerprint to the fingerprint file
func (c *Config) SaveFingerprint(fp string) error {
	c.Fingerprint = fp

	dir := filepath.Dir(c.FingerprintFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.FingerprintFile, []byte(fp), 0600)
}

func defaultFingerprintFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roomctl/fingerprint"
	}
	return filepath.Join(home, ".roomctl", "fingerprint")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
