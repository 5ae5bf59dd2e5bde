package chatclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

func TestConnectRunsAtMostOneDialer(t *testing.T) {
	// Nothing listens on port 1, so the dial fails immediately and leaves
	// the redial loop running in the background.
	tr := NewWSTransport("ws://127.0.0.1:1/ws/chat?token=x", nil, logger.New("error"))
	defer tr.Close()

	require.ErrorIs(t, tr.Connect(), apperrors.ErrTransport)
	assert.False(t, tr.Connected())

	// A second Connect must not open a competing socket or dial loop while
	// the redial is in flight.
	require.ErrorIs(t, tr.Connect(), apperrors.ErrTransport)
	assert.False(t, tr.Connected())
}
