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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyFunc(t *testing.T) {
	tests := []struct {
		name        string
		proxyURL    string
		hostProxy   string
		env         map[string]string
		wantSource  ProxySource
		wantProxy   string
		errContains string
	}{
		{
			name:       "config_wins",
			proxyURL:   "http://config.proxy:8080",
			hostProxy:  "http://host.proxy:3128",
			env:        map[string]string{"HTTPS_PROXY": "http://env.proxy:1"},
			wantSource: ProxyFromConfig,
			wantProxy:  "http://config.proxy:8080",
		},
		{
			name:       "host_when_no_config",
			hostProxy:  "http://host.proxy:3128",
			env:        map[string]string{"HTTPS_PROXY": "http://env.proxy:1"},
			wantSource: ProxyFromHost,
			wantProxy:  "http://host.proxy:3128",
		},
		{
			name:       "environment_fallback",
			env:        map[string]string{"HTTPS_PROXY": "http://env.proxy:1"},
			wantSource: ProxyFromEnvironment,
			wantProxy:  "http://env.proxy:1",
		},
		{
			name:       "environment_no_proxy",
			env:        map[string]string{"HTTPS_PROXY": "http://env.proxy:1", "NO_PROXY": "api.anthropic.com"},
			wantSource: ProxyFromEnvironment,
			wantProxy:  "",
		},
		{
			name:        "config_without_scheme",
			proxyURL:    "proxy.local:8080",
			errContains: "must include a scheme and host",
		},
		{
			name:        "host_unparseable",
			hostProxy:   "http://[::1",
			errContains: "parsing host proxy url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "NO_PROXY", "no_proxy", "REQUEST_METHOD"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			proxy, source, err := ProxyFunc(tt.proxyURL, tt.hostProxy)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, source)

			req, err := http.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
			require.NoError(t, err)
			u, err := proxy(req)
			require.NoError(t, err)
			if tt.wantProxy == "" {
				assert.Nil(t, u)
				return
			}
			require.NotNil(t, u)
			assert.Equal(t, tt.wantProxy, u.String())
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	c, source, err := NewHTTPClient("http://config.proxy:8080", "")
	require.NoError(t, err)
	assert.Equal(t, ProxyFromConfig, source)

	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotSame(t, http.DefaultTransport, transport)
	require.NotNil(t, transport.Proxy)
}
