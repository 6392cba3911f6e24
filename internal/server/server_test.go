package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockinfo/internal/app"
	"github.com/bobmcallan/stockinfo/internal/common"
)

func TestServer_ListenServeShutdown(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	srv := NewServer(&app.App{
		Config:      cfg,
		Logger:      common.NewSilentLogger(),
		Pipeline:    &mockPipeline{},
		StartupTime: time.Now(),
	})
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	require.NoError(t, srv.Listen())
	addr := srv.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr, "bound address carries the chosen port")

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-served:
		assert.NoError(t, err, "closed server is not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestServer_ListenBindError(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	first := NewServer(&app.App{Config: cfg, Logger: common.NewSilentLogger(), Pipeline: &mockPipeline{}})
	require.NoError(t, first.Listen())
	defer first.listener.Close()

	taken := *cfg
	taken.Server.Port = first.listener.Addr().(*net.TCPAddr).Port
	second := NewServer(&app.App{Config: &taken, Logger: common.NewSilentLogger(), Pipeline: &mockPipeline{}})
	assert.Error(t, second.Listen())
}
