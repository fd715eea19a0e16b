package llm

import (
	"net/http"
	"net/url"
	"time"
)

// newProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// newHTTPClient builds a dedicated client per provider so that each tier
// travels its own transport path
func newHTTPClient(config Config, defaultTimeout time.Duration) *http.Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               newProxyFunc(config.HTTPProxy, config.HTTPSProxy),
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
