package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateAlertIdempotent(t *testing.T) {
	chat := &Chat{ID: 1}
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, chat.ActivateAlert(7, first))
	assert.True(t, chat.EmergencyActive)
	require.NotNil(t, chat.EmergencyInitiatorID)
	assert.Equal(t, 7, *chat.EmergencyInitiatorID)

	// Second activation, even by someone else, changes nothing.
	assert.False(t, chat.ActivateAlert(8, first.Add(time.Hour)))
	assert.Equal(t, 7, *chat.EmergencyInitiatorID)
	assert.Equal(t, first, *chat.EmergencyActivatedAt)
}

func TestDeactivateAlertOnlyByInitiator(t *testing.T) {
	chat := &Chat{ID: 1}
	chat.ActivateAlert(7, time.Now())

	changed, err := chat.DeactivateAlert(8)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, CodeNotInitiator, ConflictCode(err))
	assert.True(t, chat.EmergencyActive)

	changed, err = chat.DeactivateAlert(7)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, chat.EmergencyActive)
	assert.Nil(t, chat.EmergencyInitiatorID)
	assert.Nil(t, chat.EmergencyActivatedAt)
}

func TestDeactivateAlertNoopWhenInactive(t *testing.T) {
	chat := &Chat{ID: 1}

	changed, err := chat.DeactivateAlert(7)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSupervisorsDeduplicated(t *testing.T) {
	chat := supervisedChat()
	assert.ElementsMatch(t, []int{10, 20}, chat.Supervisors())
}

func TestHasParticipant(t *testing.T) {
	chat := supervisedChat()
	assert.True(t, chat.HasParticipant(1))
	assert.False(t, chat.HasParticipant(42))
}
