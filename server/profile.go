// Package server holds the configured qBittorrent server profiles.
package server

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Profile identifies one configured qBittorrent daemon and how to log in to it.
type Profile struct {
	ID       string `mapstructure:"id" yaml:"id"`
	Name     string `mapstructure:"name" yaml:"name,omitempty"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port,omitempty"`
	Path     string `mapstructure:"path" yaml:"path,omitempty"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// DisplayName returns the name if set, otherwise the host
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Host
}

// BaseURL builds the API root for the profile.
// Hosts without a scheme are assumed to be plain http.
func (p Profile) BaseURL() string {
	host := strings.TrimRight(strings.TrimSpace(p.Host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}

	if p.Port > 0 {
		scheme, rest, _ := strings.Cut(host, "://")
		hostPart, pathPart, _ := strings.Cut(rest, "/")
		if _, _, err := net.SplitHostPort(hostPart); err != nil {
			hostPart = net.JoinHostPort(strings.Trim(hostPart, "[]"), strconv.Itoa(p.Port))
		}
		host = scheme + "://" + hostPart
		if pathPart != "" {
			host += "/" + pathPart
		}
	}

	if path := strings.Trim(p.Path, "/"); path != "" {
		host += "/" + path
	}

	return host
}

// ParseBaseURL parses BaseURL and rejects addresses without a host.
func (p Profile) ParseBaseURL() (*url.URL, error) {
	raw := p.BaseURL()
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", p.Host, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid server address %q: missing host", p.Host)
	}
	return u, nil
}
