package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingTransport struct{}

func (failingTransport) Send(context.Context, Message) error { return errors.New("relay down") }

func TestNewTransport(t *testing.T) {
	logger := zap.NewNop().Sugar()

	tr, err := NewTransport(Options{Kind: "log", Logger: logger})
	require.NoError(t, err)
	assert.IsType(t, LogTransport{}, tr)
	assert.NoError(t, tr.Send(context.Background(), Message{To: "a@example.com"}))

	tr, err = NewTransport(Options{Kind: "smtp", SMTP: SMTPConfig{Host: "smtp.example.com"}})
	require.NoError(t, err)
	smtp := tr.(*SMTPTransport)
	assert.Equal(t, 587, smtp.cfg.Port)

	_, err = NewTransport(Options{Kind: "smtp"})
	assert.Error(t, err)

	tr, err = NewTransport(Options{Kind: "http", APIURL: "http://mail.internal"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPTransport{}, tr)

	_, err = NewTransport(Options{Kind: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestDirect_ReportsDelivered(t *testing.T) {
	outcome, err := Direct{Transport: LogTransport{Logger: zap.NewNop().Sugar()}}.Deliver(context.Background(), Message{})
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)

	_, err = Direct{Transport: failingTransport{}}.Deliver(context.Background(), Message{})
	assert.EqualError(t, err, "relay down")
}
