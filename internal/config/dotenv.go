package config

import (
	"bufio"
	"os"
	"strings"
)

// LoadDotEnv sets environment variables from a .env file if one exists at
// path, deliberately minimal per spec.md §1's "thin external collaborator"
// framing. Each KEY=VALUE line has surrounding quote characters trimmed
// from its value, and variables already set in the environment are left
// unchanged. Escapes, multiline values and export syntax are not handled.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
