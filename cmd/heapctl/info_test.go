package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memmgr/heap"
)

func TestRunInfo_Default(t *testing.T) {
	resetFlags(t)

	output, err := captureOutput(t, runInfo)
	require.NoError(t, err)
	assertContains(t, output, []string{
		"Alignment:        4 bytes",
		"Header:           16 bytes (4 units)",
		"Minimum chunk:    7 units",
		"Largest request:  131048 bytes",
	})
}

func TestRunInfo_JSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	alignment = 16
	guardSize = 2

	output, err := captureOutput(t, runInfo)
	require.NoError(t, err)

	var g geometry
	decodeJSON(t, output, &g)
	assert.Equal(t, uint32(16), g.Alignment)
	assert.Equal(t, uint16(1), g.HeaderCSize)
	assert.Equal(t, uint16(5), g.MinCSize)
	assert.Equal(t, uint32(131071), g.MaxRequest)
}

func TestRunInfo_BadConfig(t *testing.T) {
	resetFlags(t)
	alignment = 12

	_, err := captureOutput(t, runInfo)
	assert.ErrorIs(t, err, heap.ErrBadConfig)
}
