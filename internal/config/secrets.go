package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvPath is the secrets file read when --env-file is not given.
const DefaultEnvPath = ".env"

// LoadSecrets reads KEY=VALUE pairs from path and copies them into the
// process environment. Variables that are already set are left untouched.
// It returns every pair found in the file.
//
// A missing file is only an error when required is true, which is the case
// when the user named the file explicitly.
func LoadSecrets(path string, required bool) (map[string]string, error) {
	if path == "" {
		path = DefaultEnvPath
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &Error{Path: path, Err: fmt.Errorf("load secrets: %w", err)}
	}
	for k, v := range values {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("set %s: %w", k, err)}
		}
	}
	return values, nil
}
