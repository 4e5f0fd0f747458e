package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{name: "build version", version: "1.4.0", want: "airportai version 1.4.0"},
		{name: "dev by default", version: "dev", want: "airportai version dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := version
			version = tt.version
			t.Cleanup(func() { version = prev })

			out, err := executeCommand(t, "", "version")
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "log-json", "provider", "model", "replay", "record", "seed", "data-dir", "config-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}
