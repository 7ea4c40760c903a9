//go:build !rtmidi

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortsCommandWithoutMidi(t *testing.T) {
	_, err := executeRoot(t, "ports")
	assert.ErrorIs(t, err, errNoMidi)
}
