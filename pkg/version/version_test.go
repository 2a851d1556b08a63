package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	defer func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildTime string
		want      string
	}{
		{
			name:    "development build",
			version: "0.0.0-dev",
			want:    "0.0.0-dev (development)",
		},
		{
			name:    "empty version falls back",
			version: "",
			want:    "0.0.0-dev (development)",
		},
		{
			name:      "release with commit and build time",
			version:   "1.2.3",
			commit:    "abc1234",
			buildTime: "2024-06-01T12:00:00Z",
			want:      "1.2.3 (commit: abc1234, built at: 2024-06-01T12:00:00Z)",
		},
		{
			name:    "release with commit only",
			version: "1.2.3",
			commit:  "abc1234",
			want:    "1.2.3 (commit: abc1234)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, BuildTime = tt.version, tt.commit, tt.buildTime
			require.Equal(t, tt.want, FormatVersion())
		})
	}
}
