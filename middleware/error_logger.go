package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/logging"
	"github.com/jayeen28/techzu-backend/utils"
	"github.com/rs/zerolog/log"
)

const maxLoggedBody = 4 << 10

// ErrorLogger turns errors attached with c.Error, and panics, into a 500 response
// carrying a reference to the matching error log entry.
func ErrorLogger(errLog *logging.ErrorLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body string
		if loggableBody(c.ContentType()) {
			body, _ = utils.ReadBody(c.Request, maxLoggedBody)
			body = redactSecrets(body, c.ContentType())
		}

		defer func() {
			if r := recover(); r != nil {
				respondServerError(c, errLog, fmt.Errorf("panic: %v", r), string(debug.Stack()), body)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		respondServerError(c, errLog, c.Errors.Last().Err, "", body)
	}
}

var (
	jsonSecret = regexp.MustCompile(`(?i)("[^"]*password[^"]*"\s*:\s*)("(?:[^"\\]|\\.)*"?|[^,}\s]+)`)
	formSecret = regexp.MustCompile(`(?i)((?:^|&)[^=&]*password[^=&]*=)[^&]*`)
)

// redactSecrets masks password fields of JSON and form bodies, including truncated ones.
func redactSecrets(body, contentType string) string {
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		return formSecret.ReplaceAllString(body, `${1}[REDACTED]`)
	}
	return jsonSecret.ReplaceAllString(body, `${1}"[REDACTED]"`)
}

func loggableBody(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json") ||
		strings.HasPrefix(contentType, "application/x-www-form-urlencoded")
}

func respondServerError(c *gin.Context, errLog *logging.ErrorLog, err error, stack, body string) {
	reference, recErr := errLog.Record(logging.ErrorRecord{
		Method: c.Request.Method,
		Route:  c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Body:   body,
		Err:    err,
		Stack:  stack,
	})

	event := log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path)
	if recErr != nil {
		event.AnErr("log_error", recErr).Msg("request failed, error log not written")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	event.Str("reference", reference).Msg("request failed")

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"message":   "Something went wrong",
		"reference": reference,
	})
}
