package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Setup Memory Configuration

[ai]
# Vision provider: "openai", "gemini" or "anthropic"
provider = "openai"
# Model id; empty uses the provider default
model = ""
# Maximum tokens for the analysis reply (100 - 4000)
max_tokens = 1000
# Sampling temperature
temperature = 0.7
# Request timeout (e.g., "60s", "2m")
timeout = "60s"

[storage]
# Backend: "sqlite", "badger", "redis" or "memory"
backend = "sqlite"
# sqlite_path = "~/.config/setup-memory/memory.db"
# badger_dir = "~/.config/setup-memory/badger"
redis_addr = "localhost:6379"
redis_password = ""
redis_db = 0
redis_prefix = "setup-memory:"

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
file = true
# Rotation limits (megabytes, files, days)
max_size = 20
max_backups = 5
max_age = 30
`

const credentialsTemplate = `# Setup Memory Credentials
# WARNING: Keep this file secure! Do not commit to version control.
# Environment variables OPENAI_API_KEY, GEMINI_API_KEY and ANTHROPIC_API_KEY take precedence.

[openai]
api_key = ""

[gemini]
api_key = ""

[anthropic]
api_key = ""
`

func createTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}

	return nil
}
