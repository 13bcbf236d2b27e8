package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainClientSearch(t *testing.T) {
	var gotPath, gotTerms, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTerms = r.URL.Query().Get("terms")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c, err := NewDomainClient(srv.URL+"/", "test-agent", srv.Client())
	require.NoError(t, err)

	b, err := c.Search("surry hills nsw", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results": []}`, string(b))
	assert.Equal(t, "/v1/listings/residential/_search", gotPath)
	assert.Equal(t, "surry hills nsw", gotTerms)
	assert.Equal(t, "test-agent", gotUA)
}

func TestDomainClientListingDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/listings/42", r.URL.Path)
		w.Write([]byte(`{"listing": {"id": 42}}`))
	}))
	defer srv.Close()

	c, err := NewDomainClient(srv.URL+"/", "test-agent", srv.Client())
	require.NoError(t, err)
	b, err := c.ListingDetails("42", nil)
	require.NoError(t, err)
	assert.Contains(t, string(b), "42")
}

func TestDomainClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewDomainClient(srv.URL+"/", "test-agent", srv.Client())
	require.NoError(t, err)
	_, err = c.Search("x", nil)
	assert.Error(t, err)
}

func TestDomainClientHealthcheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewDomainClient(srv.URL+"/", "test-agent", srv.Client())
	require.NoError(t, err)
	assert.NoError(t, c.Healthcheck(context.Background()))
}

func TestDomainClientHealthcheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewDomainClient(srv.URL+"/", "test-agent", srv.Client())
	require.NoError(t, err)
	assert.Error(t, c.Healthcheck(context.Background()))
}

func TestRegistryCheck(t *testing.T) {
	// empty registry fails closed
	r := NewRegistry()
	assert.Error(t, r.Check(context.Background()))
	assert.Empty(t, r.Names())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c, err := NewDomainClient(srv.URL+"/", "test-agent", srv.Client())
	require.NoError(t, err)
	r.Register("domain", c)
	assert.NoError(t, r.Check(context.Background()))
	assert.Equal(t, []string{"domain"}, r.Names())

	got, ok := r.Get("domain")
	assert.True(t, ok)
	assert.NotNil(t, got)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}
