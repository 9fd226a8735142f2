package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/edi-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified access token carrying the tenant
// and user claims the services read.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.Unauthorized(w, jwt.ErrInvalidToken.Error())
				return
			}

			if tokenType, ok := claims["type"].(string); !ok || tokenType != jwt.TypeAccess {
				response.Unauthorized(w, jwt.ErrInvalidToken.Error())
				return
			}
			if companyID, ok := claims["company_id"].(string); !ok || companyID == "" {
				response.Forbidden(w, "Token is not bound to a company")
				return
			}
			if userID, ok := claims["user_id"].(string); !ok || userID == "" {
				response.Unauthorized(w, jwt.ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
