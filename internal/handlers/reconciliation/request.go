package reconciliation

import (
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func openFormFile(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return header.Open()
}

// optionalDate parses a query date when present. Responds with 400 and
// returns ok=false on a malformed value.
func optionalDate(c *gin.Context, param string) (*time.Time, bool) {
	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		respondBadRequest(c, param+" must be YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// requireScope reads the mandatory acquirer_id and date query parameters
func requireScope(c *gin.Context) (string, time.Time, bool) {
	acquirerID := c.Query("acquirer_id")
	if acquirerID == "" {
		respondBadRequest(c, "acquirer_id is required")
		return "", time.Time{}, false
	}
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		respondBadRequest(c, "date must be YYYY-MM-DD")
		return "", time.Time{}, false
	}
	return acquirerID, date, true
}

func intQuery(c *gin.Context, param string, fallback int32) int32 {
	raw := c.Query(param)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}

// initiatedBy identifies the operator for the audit trail. Falls back to
// the caller's address when no identity header is present.
func initiatedBy(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	if user := c.PostForm("initiated_by"); user != "" {
		return user
	}
	return c.ClientIP()
}
