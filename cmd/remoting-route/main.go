/*
remoting-route resolves RocketMQ topic routes from name servers.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand(os.Stdout).ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
