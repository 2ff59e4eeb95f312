package web

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"lootexchange/pkg/log"
)

// Start serves until the server is shut down. Only unexpected failures,
// like a busy address, are returned.
func Start(server *http.Server) error {
	log.Infow("starting an http server", "address", server.Addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		log.Info("http server is closed")
		return nil
	}
	return errors.Wrap(err, "http server failed")
}

func Shutdown(server *http.Server, shutdownTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("failed to shutdown the http server", "error", err.Error())
		return
	}
	log.Info("http server stopped")
}
