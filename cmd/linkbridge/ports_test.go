package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePorts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePorts(&buf, []string{"IAC Bus 1", "USB MIDI"}, 1))
	assert.Equal(t, "   0  IAC Bus 1\n*  1  USB MIDI\n", buf.String())

	buf.Reset()
	require.NoError(t, writePorts(&buf, nil, -1))
	assert.Contains(t, buf.String(), "No MIDI output ports")
}
