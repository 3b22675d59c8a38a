package httpservice

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysAvailable(t *testing.T) {
	assert.True(t, AlwaysAvailable.IsAvailable(context.Background()))
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	addr := ln.Addr().String()

	t.Run("given listening address, then available", func(t *testing.T) {
		assert.True(t, DialProbe(addr, time.Second).IsAvailable(context.Background()))
	})

	t.Run("given closed address, then unavailable", func(t *testing.T) {
		require.NoError(t, ln.Close())
		assert.False(t, DialProbe(addr, 200*time.Millisecond).IsAvailable(context.Background()))
	})

	t.Run("given cancelled context, then unavailable", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.False(t, DialProbe("127.0.0.1:1", time.Second).IsAvailable(ctx))
	})
}
