// Stunc — a minimal STUN binding client.
//
// Sends a single binding request to a STUN server and prints the
// reflexive (server-observed) address it reports, the way a node would
// use internal/stun during DMTP login.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/1ureka/dimnat/internal/stun"
)

func main() {
	server := flag.String("server", "stun.l.google.com:19302", "STUN server address (host:port)")
	timeout := flag.Duration("timeout", 5*time.Second, "transaction timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := stun.Discover(ctx, *server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stunc: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("reflexive address: %s\n", result.MappedAddress.String())
	if result.Software != "" {
		fmt.Printf("server software:    %s\n", result.Software)
	}
}
