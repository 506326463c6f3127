package mailaddr_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/mailaddr"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "trims and lowercases", input: "  Jane.Doe@Example.COM ", want: "jane.doe@example.com", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "whitespace only", input: " \t\n ", wantOK: false},
		{name: "keeps invalid text", input: " Not-An-Email ", want: "not-an-email", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := mailaddr.Normalize(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"A@B.CO", "  x@y.z  ", "ÉLÈVE@école.fr", "plain", "MiXeD.Case+Tag@Sub.Example.Org"}
	for _, in := range inputs {
		once, ok := mailaddr.Normalize(in)
		require.True(t, ok, in)
		twice, ok := mailaddr.Normalize(once)
		require.True(t, ok, in)
		assert.Equal(t, once, twice, in)
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"user@example.com", true},
		{"USER@EXAMPLE.COM", true},
		{"first.last+tag@sub.example.co", true},
		{"o'brien@example.ie", true},
		{"a@b.c", true},
		{"  padded@example.com  ", true},
		{"", false},
		{"not-an-email", false},
		{"@example.com", false},
		{"user@", false},
		{"user@localhost", false},
		{"user@-example.com", false},
		{"user@example-.com", false},
		{"user@exa_mple.com", false},
		{"user@example..com", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"us..er@example.com", false},
		{"user name@example.com", false},
		{"user@" + strings.Repeat("a", 64) + ".com", false},
		{"user@" + strings.Repeat("a", 63) + ".com", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mailaddr.IsValid(tt.input))
		})
	}
}

func TestPartition(t *testing.T) {
	t.Parallel()

	t.Run("classifies and dedupes", func(t *testing.T) {
		t.Parallel()
		valid, invalid := mailaddr.Partition([]string{"a@x.com", "not-an-email", "B@X.com", " a@X.COM ", "", "  ", "not-an-email"})
		assert.Equal(t, []string{"a@x.com", "b@x.com"}, valid)
		assert.Equal(t, []string{"not-an-email", ""}, invalid)
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		valid, invalid := mailaddr.Partition(nil)
		assert.Empty(t, valid)
		assert.Empty(t, invalid)
	})

	t.Run("valid and invalid never overlap and cover every non-empty input", func(t *testing.T) {
		t.Parallel()
		inputs := []string{"x@y.io", "X@Y.IO", "bad@", "ok@ok.ok", "  spaced@ok.ok", "@@", "z"}
		valid, invalid := mailaddr.Partition(inputs)

		validSet := map[string]bool{}
		for _, v := range valid {
			validSet[v] = true
		}
		for _, v := range invalid {
			assert.False(t, validSet[v], "value %q in both sets", v)
		}

		invalidSet := map[string]bool{}
		for _, v := range invalid {
			invalidSet[v] = true
		}
		for _, in := range inputs {
			if addr, ok := mailaddr.Canonical(in); ok {
				assert.True(t, validSet[addr], in)
				continue
			}
			assert.True(t, invalidSet[strings.TrimSpace(in)], in)
		}
	})
}

func TestMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"jane@example.com", "j***@example.com"},
		{"j@example.com", "j***@example.com"},
		{" élise@exemple.fr ", "é***@exemple.fr"},
		{"no-at-sign", "***"},
		{"@example.com", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mailaddr.Mask(tt.input))
		})
	}
}
