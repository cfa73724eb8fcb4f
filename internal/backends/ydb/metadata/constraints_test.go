package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		hash     uint32
		expected string
	}{
		{
			name:     "simple name",
			input:    "users",
			hash:     0x1a2b3c4d,
			expected: "users_1a2b3c4d",
		},
		{
			name:     "upper case",
			input:    "Users",
			hash:     1,
			expected: "users_00000001",
		},
		{
			name:     "special characters",
			input:    "my.coll@name",
			hash:     0,
			expected: "my_coll_name_00000000",
		},
		{
			name:     "unicode",
			input:    "таблица",
			hash:     0xffffffff,
			expected: "_______" + "_ffffffff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tableName(tt.input, tt.hash))
		})
	}

	long := tableName(strings.Repeat("a", 400), 7)
	assert.Len(t, long, maxObjectNameLength)
	assert.True(t, strings.HasSuffix(long, "_00000007"))
}

func TestValidCollectionName(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		input    string
		expected bool
	}{
		"Simple":   {input: "users", expected: true},
		"Dots":     {input: "app.users", expected: true},
		"Empty":    {input: "", expected: false},
		"Dollar":   {input: "$cmd", expected: false},
		"Slash":    {input: "a/b", expected: false},
		"Null":     {input: "a\x00b", expected: false},
		"Reserved": {input: "_docbridge_metadata", expected: false},
		"TooLong":  {input: strings.Repeat("a", 256), expected: false},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, ValidCollectionName(tc.input))
		})
	}
}

func TestFnv32Hash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0x811c9dc5), fnv32Hash(""))
	assert.Equal(t, fnv32Hash("users"), fnv32Hash("users"))
	assert.NotEqual(t, fnv32Hash("users"), fnv32Hash("Users"))
}
