// Package connectors holds clients for the external listing portals the
// platform ingests property data from. Each connector exposes the same small
// surface over its upstream API and returns raw JSON payloads; the jmespath
// parsers in this package pull typed fields out of them.
package connectors

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Client interface {
	// Search runs a free-text location/listing search.
	Search(query string, params map[string]string) ([]byte, error)
	// ListingDetails fetches the full payload for a single listing.
	ListingDetails(listingID string, params map[string]string) ([]byte, error)
	// SoldHistory fetches historical sale events for a listing.
	SoldHistory(listingID string, params map[string]string) ([]byte, error)
	// Healthcheck probes the upstream with a cheap request.
	Healthcheck(ctx context.Context) error
}

// Registry maps connector names to clients. The health endpoint iterates it
// and the ingest worker picks its source from it.
type Registry struct {
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: map[string]Client{}}
}

func (r *Registry) Register(name string, c Client) {
	r.clients[name] = c
}

func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Names returns registered connector names in a stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Check probes every registered connector and returns an error naming the
// ones that failed.
func (r *Registry) Check(ctx context.Context) error {
	if len(r.clients) == 0 {
		return fmt.Errorf("no connectors registered")
	}
	failed := []string{}
	for _, name := range r.Names() {
		if err := r.clients[name].Healthcheck(ctx); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", name, err.Error()))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("unhealthy connectors: %s", strings.Join(failed, "; "))
	}
	return nil
}
