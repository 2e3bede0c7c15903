//go:build statsview

package statsview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"gochip8/pkg/logger"
)

// Serve starts the graph server on addr and stops it when ctx is done. It
// returns once the server has been started.
func Serve(ctx context.Context, addr string, output io.Writer) {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()

	go func() {
		if err := mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logf(logger.Allow, "statsview", "server on %s stopped: %v", addr, err)
		}
	}()
	go func() {
		<-ctx.Done()
		mgr.Stop()
	}()

	fmt.Fprintf(output, "runtime graphs at http://%s%s\n", addr, graphPath)
}

func Available() bool {
	return true
}
