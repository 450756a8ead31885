package am

import (
	"net/url"
	"strings"

	"github.com/teranos/scholarfed/errors"
)

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	for i, p := range c.Database.Paths {
		if strings.TrimSpace(p) == "" {
			return errors.Newf("database.paths[%d] is empty", i)
		}
	}

	for i, e := range c.Graph.Endpoints {
		u, err := url.Parse(strings.TrimSpace(e))
		if err != nil {
			return errors.Wrapf(err, "graph.endpoints[%d] is not a URL", i)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Newf("graph.endpoints[%d] must be http or https, got %q", i, e)
		}
		if u.Host == "" {
			return errors.Newf("graph.endpoints[%d] has no host: %q", i, e)
		}
	}

	// 0 = default timeout, negative = invalid
	if c.Graph.TimeoutSeconds < 0 {
		return errors.Newf("graph.timeout_seconds must be >= 0, got %d", c.Graph.TimeoutSeconds)
	}
	// 0 = unlimited
	if c.Graph.RequestsPerSecond < 0 {
		return errors.Newf("graph.requests_per_second must be >= 0, got %g", c.Graph.RequestsPerSecond)
	}
	if c.Engine.MaxConcurrency < 0 {
		return errors.Newf("engine.max_concurrency must be >= 0, got %d", c.Engine.MaxConcurrency)
	}

	if len(c.Database.Paths) == 0 && len(c.Graph.Endpoints) == 0 {
		return errors.WithHint(
			errors.New("no databases or graph endpoints configured"),
			"set database.paths or graph.endpoints in am.toml")
	}
	return nil
}
