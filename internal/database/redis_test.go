package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
}

func TestNewRedis_Errors(t *testing.T) {
	_, err := NewRedis("not a url")
	assert.ErrorContains(t, err, "invalid redis URL")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedis("redis://" + addr)
	assert.ErrorContains(t, err, "ping failed")
}

func TestNewPool_EmptyURL(t *testing.T) {
	_, err := NewPool("")
	assert.Error(t, err)
}
