package httpapi

import (
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const authContextKey = "taskkeeper.auth"

// authMiddleware resolves the bearer token and stores the AuthContext on
// the gin context. Requests without a valid token stop here with 401.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := common.ParseBearer(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			s.abortWithError(c, common.ErrorUnauthenticated)
			return
		}

		ac, err := s.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.abortWithError(c, err)
			return
		}

		c.Set(authContextKey, ac)
		c.Next()
	}
}

// authFrom returns the AuthContext set by authMiddleware.
func authFrom(c *gin.Context) *services.AuthContext {
	return c.MustGet(authContextKey).(*services.AuthContext)
}
