package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CatalogConfig points at the catalog API serving /stock/{id} and /products/{id}.
type CatalogConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the catalog client configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("catalog URL is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog URL must be an absolute http(s) URL: %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog timeout is not configured")
	}
	return nil
}
