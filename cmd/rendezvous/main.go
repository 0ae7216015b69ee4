// Rendezvous — the bootstrap WebSocket signaling server two DMTP nodes
// use to exchange their first HI before the UDP handshake takes over.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/1ureka/dimnat/internal/rendezvous"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := rendezvous.NewServer()
	port, err := server.Start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rendezvous: %v\n", err)
		os.Exit(1)
	}
	defer server.Close()

	pterm.Info.Printfln("rendezvous server listening on :%d", port)
	pterm.Info.Printfln("code: %s", server.Code())
	pterm.Info.Println("waiting for nodes to connect...")

	<-ctx.Done()
	pterm.Info.Println("shutting down")
}
