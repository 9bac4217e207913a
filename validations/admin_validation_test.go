package validations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDescription(t *testing.T) {
	desc, err := ValidateDescription("Access to the channel")
	require.NoError(t, err)
	assert.Equal(t, "Access to the channel", desc)

	_, err = ValidateDescription("")
	assert.Error(t, err)

	_, err = ValidateDescription("   \n ")
	assert.Error(t, err)
}

func TestValidatePrice(t *testing.T) {
	price, err := ValidatePrice("25")
	require.NoError(t, err)
	assert.Equal(t, 25, price)

	price, err = ValidatePrice(" 100 ")
	require.NoError(t, err)
	assert.Equal(t, 100, price)

	for _, bad := range []string{"", "abc", "-5", "0", "1.5", "10 stars"} {
		_, err := ValidatePrice(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestValidateUserID(t *testing.T) {
	id, err := ValidateUserID("123456789")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), id)

	// Negative ids identify chats; the grant path accepts only users but
	// the parse itself is sign-agnostic
	id, err = ValidateUserID("-100123")
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id)

	for _, bad := range []string{"", "abc", "0", "12x"} {
		_, err := ValidateUserID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
