package cmd

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Output(t *testing.T) {
	cmd := newVersionCmd()

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ndfkit version")
}

func TestVersionLines(t *testing.T) {
	tests := []struct {
		name string
		info debug.BuildInfo
		want []string
	}{
		{
			name: "released",
			info: debug.BuildInfo{GoVersion: "go1.25.1", Main: debug.Module{Version: "v1.2.0"}},
			want: []string{"ndfkit version\tv1.2.0", "go version\tgo1.25.1"},
		},
		{
			name: "local build with revision",
			info: debug.BuildInfo{
				GoVersion: "go1.25.1",
				Settings:  []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}, {Key: "vcs.modified", Value: "true"}},
			},
			want: []string{"ndfkit version\tunknown", "revision\tabc123", "go version\tgo1.25.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, versionLines(&tt.info))
		})
	}
}
