package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChatID(t *testing.T) {
	id, err := parseChatID("-100123456789")
	assert.NoError(t, err)
	assert.Equal(t, int64(-100123456789), id)

	_, err = parseChatID("not-a-number")
	assert.Error(t, err)
}
