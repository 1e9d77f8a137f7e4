package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Flash kinds
const (
	FlashMessage = "message"
	FlashError   = "error"
)

const flashCookiePrefix = "flash_"

// SetFlash stores a one-shot message that survives a redirect. gin escapes the value.
func SetFlash(c *gin.Context, kind, text string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(flashCookiePrefix+kind, text, 60, "/", "", false, true)
}

// PopFlash reads and clears a one-shot message
func PopFlash(c *gin.Context, kind string) string {
	text, err := c.Cookie(flashCookiePrefix + kind)
	if err != nil || text == "" {
		return ""
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(flashCookiePrefix+kind, "", -1, "/", "", false, true)
	return text
}
