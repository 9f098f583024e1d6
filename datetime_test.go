package gosvl

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDateTime(t *testing.T) {
	var buf bytes.Buffer
	ts := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	require.NoError(t, SendDateTime(&buf, ts))
	assert.Equal(t, "DateTime 24 3 5 14 7 9\r\n", buf.String())
}
