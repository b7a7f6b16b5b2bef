package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tests := []struct {
			input string
			major uint16
			minor uint16
		}{
			{"1.0", 1, 0},
			{"1.1", 1, 1},
			{"2.0", 2, 0},
			{" 10.23 ", 10, 23},
		}
		for _, tt := range tests {
			v, err := Parse(tt.input)
			require.NoError(t, err, tt.input)
			assert.Equal(t, tt.major, v.Major, tt.input)
			assert.Equal(t, tt.minor, v.Minor, tt.input)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, input := range []string{"", "1", "abc", "1.0.0", "1.x", "-1.0", ".1", "70000.0"} {
			_, err := Parse(input)
			assert.Error(t, err, input)
		}
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "10.23", MustParse("10.23").String())
	})

	t.Run("MustParsePanics", func(t *testing.T) {
		assert.Panics(t, func() { MustParse("one") })
	})
}

func TestCompatible(t *testing.T) {
	v1 := MustParse("1.0")
	assert.True(t, v1.Compatible(MustParse("1.7")))
	assert.False(t, v1.Compatible(MustParse("2.0")))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(""), "missing version")
	assert.True(t, Supported(Current))
	assert.True(t, Supported("1.4"))
	assert.False(t, Supported("2.0"))
	assert.False(t, Supported("beta"))
}
