package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Validate(t *testing.T) {
	assert.ErrorIs(t, Message{Subject: "s"}.Validate(), ErrEmptyRecipient)
	assert.NoError(t, Message{To: "a@x.io"}.Validate())
}

func TestLogNotifier_Send(t *testing.T) {
	n := NewLogNotifier()

	assert.NoError(t, n.Send(context.Background(), "a@x.io", "Task Assigned", "body"))
	assert.ErrorIs(t, n.Send(context.Background(), "", "Task Assigned", "body"), ErrEmptyRecipient)
}

func TestNewSMTPNotifier_FromDefaultsToUsername(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPSettings{
		Host:     "localhost",
		Port:     587,
		Username: "robot@x.io",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "robot@x.io", n.from)
}

func TestSMTPNotifier_SendRejectsEmptyRecipient(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPSettings{Host: "localhost", Port: 587, From: "robot@x.io"})
	require.NoError(t, err)

	// до соединения с сервером дело не доходит
	assert.ErrorIs(t, n.Send(context.Background(), "", "s", "b"), ErrEmptyRecipient)
}

func TestSMTPNotifier_SendRejectsBadAddress(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPSettings{Host: "localhost", Port: 587, From: "robot@x.io"})
	require.NoError(t, err)

	assert.Error(t, n.Send(context.Background(), "not an address", "s", "b"))
}
