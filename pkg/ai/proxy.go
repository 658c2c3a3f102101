// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"net/http"
	"net/url"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/http/httpproxy"
)

// ProxySource reports where the chosen proxy came from
type ProxySource string

const (
	ProxyFromConfig      ProxySource = "config"
	ProxyFromHost        ProxySource = "host"
	ProxyFromEnvironment ProxySource = "environment"
)

// 🌐 ProxyFunc picks the proxy for model requests: the configured proxy_url first,
// then the host editor's own proxy setting, then HTTPS_PROXY/HTTP_PROXY/NO_PROXY
// from the environment.
func ProxyFunc(proxyURL, hostProxy string) (func(*http.Request) (*url.URL, error), ProxySource, error) {
	candidates := []struct {
		raw    string
		source ProxySource
	}{
		{proxyURL, ProxyFromConfig},
		{hostProxy, ProxyFromHost},
	}
	for _, c := range candidates {
		if c.raw == "" {
			continue
		}
		u, err := url.Parse(c.raw)
		if err != nil {
			return nil, "", errors.Errorf("parsing %s proxy url: %w", c.source, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, "", errors.Errorf("%s proxy url %q must include a scheme and host", c.source, c.raw)
		}
		return http.ProxyURL(u), c.source, nil
	}

	fromEnv := httpproxy.FromEnvironment().ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fromEnv(req.URL)
	}, ProxyFromEnvironment, nil
}

// 🚚 NewHTTPClient returns an HTTP client that routes through the chosen proxy
func NewHTTPClient(proxyURL, hostProxy string) (*http.Client, ProxySource, error) {
	proxy, source, err := ProxyFunc(proxyURL, hostProxy)
	if err != nil {
		return nil, "", err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy
	return &http.Client{Transport: transport}, source, nil
}
