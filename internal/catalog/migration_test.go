package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileName(t *testing.T) {
	for _, tc := range []struct {
		name     string
		expected fileName
		invalid  bool
	}{
		{
			name:     "001-init.sh",
			expected: fileName{sequence: 1, slug: "init", stem: "001-init", ext: "sh", hasExt: true},
		},
		{
			name:     "1-init.sh",
			expected: fileName{sequence: 1, slug: "init", stem: "1-init", ext: "sh", hasExt: true},
		},
		{
			name:     "0042-Add_Config.TS",
			expected: fileName{sequence: 42, slug: "add-config", stem: "0042-Add_Config", ext: "ts", hasExt: true},
		},
		{
			name:     "007-two.dots.py",
			expected: fileName{sequence: 7, slug: "two-dots", stem: "007-two.dots", ext: "py", hasExt: true},
		},
		{
			name:     "003-run",
			expected: fileName{sequence: 3, slug: "run", stem: "003-run"},
		},
		{name: ".history", invalid: true},
		{name: ".001-hidden.sh", invalid: true},
		{name: "init.sh", invalid: true},
		{name: "abc-init.sh", invalid: true},
		{name: "001init.sh", invalid: true},
		{name: "001-", invalid: true},
		{name: "001-.sh", invalid: true},
		{name: "001-__.sh", invalid: true},
		{name: "99999999999999999999999-overflow.sh", invalid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseFileName(tc.name)
			if tc.invalid {
				assert.ErrorIs(t, err, errNotAMigration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, parsed)
		})
	}
}

func TestSlugify(t *testing.T) {
	for in, expected := range map[string]string{
		"init":                     "init",
		"Add_Config":               "add-config",
		"  leading and trailing  ": "leading-and-trailing",
		"many---hyphens":           "many-hyphens",
		"v2 API (beta)":            "v2-api-beta",
		"__":                       "",
	} {
		assert.Equal(t, expected, Slugify(in), in)
	}
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "001-init", FormatID(1, "init"))
	assert.Equal(t, "042-add-config", FormatID(42, "add-config"))
	assert.Equal(t, "1234-late", FormatID(1234, "late"))
}

func TestParseID(t *testing.T) {
	sequence, slug, err := ParseID("005-old")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sequence)
	assert.Equal(t, "old", slug)

	sequence, _, err = ParseID("1234-late")
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), sequence)

	for _, invalid := range []string{"", "init", "001", "001-", "-init", "001-two words"} {
		_, _, err := ParseID(invalid)
		assert.Error(t, err, invalid)
	}
}
