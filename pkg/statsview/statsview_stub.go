//go:build !statsview

package statsview

import (
	"context"
	"fmt"
	"io"
)

// Serve reports that the binary was built without the graph server.
func Serve(_ context.Context, _ string, output io.Writer) {
	fmt.Fprintln(output, "runtime graphs not built in: rebuild with -tags statsview")
}

func Available() bool {
	return false
}
