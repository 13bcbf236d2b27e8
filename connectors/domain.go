package connectors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"

	"golang.org/x/net/publicsuffix"
)

// domainClient talks to a Domain-style residential listings API.
type domainClient struct {
	baseURL   string
	userAgent string
	hc        *http.Client
}

// NewDomainClient returns a Client for the listings portal at baseURL. Pass
// a nil http.Client to use a default client with an authenticated cookie jar.
func NewDomainClient(baseURL, userAgent string, hc *http.Client) (Client, error) {
	if hc == nil {
		var err error
		hc, err = getDefaultHTTPClient(baseURL)
		if err != nil {
			return nil, err
		}
	}
	return &domainClient{baseURL: baseURL, userAgent: userAgent, hc: hc}, nil
}

// getDefaultHTTPClient builds an http.Client whose cookie jar carries the
// portal session cookie from the environment.
func getDefaultHTTPClient(baseURL string) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, err
	}
	cookies := []*http.Cookie{
		{Name: "DOMAIN_SESSION", Value: os.Getenv("DOMAIN_SESSION")},
	}
	jar.SetCookies(u, cookies)
	return &http.Client{Jar: jar}, nil
}

func (c *domainClient) doRequest(path string, params map[string]string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", c.userAgent)
	q := req.URL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	req.URL.RawQuery = q.Encode()
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connector returned %s", res.Status)
	}
	return io.ReadAll(res.Body)
}

func (c *domainClient) Search(query string, params map[string]string) ([]byte, error) {
	if params == nil {
		params = map[string]string{}
	}
	params["terms"] = query
	return c.doRequest("v1/listings/residential/_search", params)
}

func (c *domainClient) ListingDetails(listingID string, params map[string]string) ([]byte, error) {
	if params == nil {
		params = map[string]string{}
	}
	return c.doRequest("v1/listings/"+listingID, params)
}

func (c *domainClient) SoldHistory(listingID string, params map[string]string) ([]byte, error) {
	if params == nil {
		params = map[string]string{}
	}
	return c.doRequest("v1/listings/"+listingID+"/soldHistory", params)
}

func (c *domainClient) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Add("User-Agent", c.userAgent)
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("connector returned %s", res.Status)
	}
	return nil
}
