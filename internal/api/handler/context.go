package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/session"
)

const sessionKey = "session"

// SetSession attaches the caller's session to the request
func SetSession(c *gin.Context, sess *session.Session) {
	c.Set(sessionKey, sess)
	c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), sess.Identity))
}

// CurrentSession returns the caller's session, or nil for anonymous requests
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
