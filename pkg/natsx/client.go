// Package natsx connects to the NATS server used to distribute model call events.
package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

const DefaultClientName = "modelfusion"

// NewClient connects to the server named by the NATS_URL environment variable,
// falling back to nats.DefaultURL. Without options the connection is named
// "modelfusion" and uses compression.
func NewClient(opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name(DefaultClientName), nats.Compression(true))
	}
	return nats.Connect(URL(), opts...)
}

// URL returns the configured server URL.
func URL() string {
	if url := os.Getenv("NATS_URL"); url != "" {
		return url
	}
	return nats.DefaultURL
}
