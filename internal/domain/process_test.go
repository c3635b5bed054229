package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesExecutable(t *testing.T) {
	t.Parallel()

	candidates := []string{"msedge", "msedge.exe"}

	tests := []struct {
		name string
		proc string
		want bool
	}{
		{name: "plain", proc: "msedge", want: true},
		{name: "windows suffix", proc: "msedge.exe", want: true},
		{name: "mixed case", proc: "MsEdge.EXE", want: true},
		{name: "padded", proc: " msedge ", want: true},
		{name: "different browser", proc: "chrome", want: false},
		{name: "partial name", proc: "msedgewebview2", want: false},
		{name: "empty", proc: "", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MatchesExecutable(tc.proc, candidates))
		})
	}
}
