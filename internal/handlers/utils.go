package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt reads a positive integer query parameter, clamped to max.
// Missing or malformed values yield def.
func QueryInt(c *gin.Context, key string, def, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
