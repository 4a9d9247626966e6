// Package dbwait blocks until the database accepts connections.
package dbwait

import (
	"context"
	"fmt"
	"io"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Wait pings until it succeeds or ctx is done, reporting progress to out.
func Wait(ctx context.Context, db Pinger, interval time.Duration, out io.Writer) error {
	fmt.Fprintln(out, "Waiting for database...")

	for {
		if err := db.PingContext(ctx); err == nil {
			break
		}

		fmt.Fprintf(out, "Database unavailable, waiting %s ...\n", describe(interval))

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-timer.C:
		}
	}

	fmt.Fprintln(out, "Database available!")
	return nil
}

func describe(d time.Duration) string {
	if d == time.Second {
		return "1 second"
	}
	return d.String()
}
