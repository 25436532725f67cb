package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantBefore string
		wantAfter  string
		wantErr    bool
	}{
		{name: "shas", input: "abc123..def456", wantBefore: "abc123", wantAfter: "def456"},
		{name: "refs", input: "origin/main~3..origin/main", wantBefore: "origin/main~3", wantAfter: "origin/main"},
		{name: "missing separator", input: "abc123", wantErr: true},
		{name: "empty before", input: "..def456", wantErr: true},
		{name: "empty after", input: "abc123..", wantErr: true},
		{name: "symmetric", input: "abc...def", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after, err := ParseRange(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBefore, before)
			assert.Equal(t, tt.wantAfter, after)
		})
	}
}

func TestParseRepository(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantOrg  string
		wantRepo string
		wantErr  bool
	}{
		{name: "valid", input: "acme/widgets", wantOrg: "acme", wantRepo: "widgets"},
		{name: "no slash", input: "widgets", wantErr: true},
		{name: "empty owner", input: "/widgets", wantErr: true},
		{name: "empty name", input: "acme/", wantErr: true},
		{name: "too many parts", input: "acme/widgets/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org, repo, err := ParseRepository(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrg, org)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestParsePRNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "plain", input: "123", want: 123},
		{name: "hash prefix", input: "#42", want: 42},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePRNumber(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
