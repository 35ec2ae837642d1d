package web

import (
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/terrycain/tcga-cache/pkg/s"
)

// XForwardedProto sets the request scheme from a proxy header so generated archive
// URLs point back through the proxy.
func XForwardedProto(defaultScheme string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hdr := c.GetHeader("X-Forwarded-Proto"); hdr != "" {
			c.Request.URL.Scheme = hdr
		} else {
			c.Request.URL.Scheme = defaultScheme
		}

		c.Next()
	}
}

func archiveURL(c *gin.Context, fp s.Fingerprint) string {
	u := url.URL{
		Scheme: c.Request.URL.Scheme,
		Host:   c.Request.Host,
		Path:   "/archive/" + string(fp),
	}
	return u.String()
}
