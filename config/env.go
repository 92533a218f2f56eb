package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoadDotEnvOptIn forces LoadDotEnv to run inside test binaries.
const LoadDotEnvOptIn = "HYPRCONNECT_TEST_LOAD_DOTENV"

// LoadDotEnv loads the nearest .env file from the working directory up to
// the filesystem root and returns its path, or "" when none was loaded.
// Test binaries skip it unless LoadDotEnvOptIn is "1". Variables already set
// in the environment win over the file.
func LoadDotEnv() (string, error) {
	if runningUnderGoTest() && os.Getenv(LoadDotEnvOptIn) != "1" {
		return "", nil
	}

	path, err := findDotEnv()
	if err != nil || path == "" {
		return "", err
	}
	if err := godotenv.Load(path); err != nil {
		return "", errors.Wrapf(err, "load %s", path)
	}
	log.Debug().Str("dotenv", path).Msg("loaded .env")
	return path, nil
}

func runningUnderGoTest() bool {
	if strings.HasSuffix(os.Args[0], ".test") {
		return true
	}
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}

func findDotEnv() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolve working directory")
	}
	for {
		candidate := filepath.Join(dir, ".env")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "stat %s", candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
