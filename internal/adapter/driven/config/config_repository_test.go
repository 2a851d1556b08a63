package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{
			name:     "yaml config",
			filename: "config.yaml",
			content: `providers: [gcp, aws]
days: 7
max_results: 100
aws_accounts: ["012345678901", "000000000001"]
aws_role: SecurityAuditRole
dir: /tmp/logs
filenames:
  gcp: org_audit.json
`,
		},
		{
			name:     "toml config",
			filename: "config.toml",
			content: `providers = ["gcp", "aws"]
days = 7
max_results = 100
aws_accounts = ["012345678901", "000000000001"]
aws_role = "SecurityAuditRole"
dir = "/tmp/logs"

[filenames]
gcp = "org_audit.json"
`,
		},
		{
			name:     "json config",
			filename: "config.json",
			content: `{
  "providers": ["gcp", "aws"],
  "days": 7,
  "max_results": 100,
  "aws_accounts": ["012345678901", "000000000001"],
  "aws_role": "SecurityAuditRole",
  "dir": "/tmp/logs",
  "filenames": {"gcp": "org_audit.json"}
}`,
		},
	}

	repo := NewConfigRepository()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := repo.LoadConfigFile(path)
			require.NoError(t, err)

			require.Equal(t, []string{"gcp", "aws"}, cfg.Providers)
			require.Equal(t, 7, cfg.Days)
			require.Equal(t, 100, cfg.MaxResults)
			require.Equal(t, []string{"012345678901", "000000000001"}, cfg.AWSAccounts)
			require.Equal(t, "SecurityAuditRole", cfg.AWSRole)
			require.Equal(t, "/tmp/logs", cfg.Dir)
			require.Equal(t, "org_audit.json", cfg.Filenames["gcp"])
		})
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	repo := NewConfigRepository()

	t.Run("missing file", func(t *testing.T) {
		_, err := repo.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("directory instead of file", func(t *testing.T) {
		dir := t.TempDir()
		_, err := repo.LoadConfigFile(dir)
		require.Error(t, err)
		require.Contains(t, err.Error(), "is a directory")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.ini")
		require.NoError(t, os.WriteFile(path, []byte("providers = gcp"), 0644))
		_, err := repo.LoadConfigFile(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported config file format")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0644))
		_, err := repo.LoadConfigFile(path)
		require.Error(t, err)
	})
}
