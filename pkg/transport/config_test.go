package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NOAA-OWP/evalcore/pkg/comm"
)

func TestInit_PopulatesKeysFromJSON(t *testing.T) {
	raw := json.RawMessage(`{"address": "nats://localhost:4222", "username": "u"}`)
	require.NoError(t, Init(raw))
	assert.Equal(t, "nats://localhost:4222", Keys.Address)
	assert.Equal(t, "u", Keys.Username)
}

func TestInit_RejectsUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"address": "nats://localhost:4222", "bogus": true}`)
	assert.Error(t, Init(raw))
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err)
}

func TestAttachBridge_WithoutClientLeavesGroupUnchanged(t *testing.T) {
	group := comm.NewGroup()
	assert.Same(t, group, AttachBridge(group))
}
