package utils

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "a"))
	assert.False(t, ContainsString([]string{}, "a"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
}

func TestIsProdEnv(t *testing.T) {
	orig := os.Getenv("VIRALMUX_ENV")
	defer os.Setenv("VIRALMUX_ENV", orig)

	os.Setenv("VIRALMUX_ENV", "prod")
	assert.True(t, IsProdEnv())
	os.Setenv("VIRALMUX_ENV", "dev")
	assert.False(t, IsProdEnv())
}

func TestImmediatePrintError(t *testing.T) {
	err := fmt.Errorf("boom")
	assert.Equal(t, err, ImmediatePrintError(err))
	assert.NoError(t, ImmediatePrintError(nil))
}

func TestTextToMd5Hash(t *testing.T) {
	hash, err := TextToMd5Hash("viralmux")
	require.NoError(t, err)
	assert.Len(t, hash, 32)

	same, err := TextToMd5Hash("viralmux")
	require.NoError(t, err)
	assert.Equal(t, hash, same)

	other, err := TextToMd5Hash("viralmux2")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "someones-hot-take-broke-the-internet",
		Slugify("Someone's Hot Take Broke the Internet!"))
	assert.Equal(t, "a-b", Slugify("  a   b  "))
	// 60 char cap, no trailing dash
	long := Slugify("word word word word word word word word word word word word word")
	assert.LessOrEqual(t, len(long), 60)
	assert.NotEqual(t, "-", long[len(long)-1:])
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace(" a\n\tb   c "))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "12345...", TruncateText("1234567890", 5))
}
