package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverel/edge-search-cli/internal/domain"
)

func TestProfileServiceListCandidatesFiltersNonProfiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, dir := range []string{"Default", "Profile 1", "profile 2", "System Profile", "Guest Profile", "Crashpad"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0o700))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "Profile 9"), []byte("not a dir"), 0o600))

	service := NewProfileService(nil)
	candidates, err := service.ListCandidates(root)
	require.NoError(t, err)

	var names []string
	for _, candidate := range candidates {
		names = append(names, candidate.Name)
		assert.Equal(t, root, candidate.RootDir)
		assert.Equal(t, filepath.Join(root, candidate.Name), candidate.Path)
	}
	assert.Equal(t, []string{"Default", "Profile 1", "profile 2"}, names)
}

func TestProfileServiceListCandidatesMissingRoot(t *testing.T) {
	t.Parallel()

	service := NewProfileService(nil)
	_, err := service.ListCandidates(filepath.Join(t.TempDir(), "no-such-root"))
	require.ErrorIs(t, err, domain.ErrProfileRootNotFound)
}

func TestProfileServiceListCandidatesEmptyRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Crashpad"), 0o700))

	service := NewProfileService(nil)
	_, err := service.ListCandidates(root)
	require.ErrorIs(t, err, domain.ErrNoProfiles)
}

func TestProfileServiceSelectByIndex(t *testing.T) {
	t.Parallel()

	candidates := []domain.ProfileDescriptor{
		{Name: "Default"},
		{Name: "Profile 1"},
		{Name: "Profile 2"},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "blank defaults to first", input: "", want: "Default"},
		{name: "whitespace defaults to first", input: "   ", want: "Default"},
		{name: "one-based index", input: "2", want: "Profile 1"},
		{name: "padded index", input: " 3 ", want: "Profile 2"},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "out of range", input: "4", wantErr: true},
		{name: "not a number", input: "two", wantErr: true},
	}

	service := NewProfileService(nil)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			selected, err := service.SelectByIndex(candidates, tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, selected.Name)
		})
	}
}
