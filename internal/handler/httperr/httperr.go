package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the wire shape of an error reply, the same flat
// {"error": "..."} document the api handlers produce inline.
type Response struct {
	Status int    `json:"-"`
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

// AbortWithError records the underlying error on the gin context for the
// request logger before writing the public message.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status, Error: msg, Detail: detail}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
