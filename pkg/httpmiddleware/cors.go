package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// Origins lists allowed origins. Empty or "*" allows any origin.
	Origins []string
	// Methods defaults to GET, POST, OPTIONS.
	Methods []string
	// MaxAge is sent as Access-Control-Max-Age when positive, in seconds.
	MaxAge int
}

// CORS answers preflight requests and sets Access-Control-Allow-Origin on
// actual requests. Requested headers are echoed back.
func CORS(cfg CORSConfig) Middleware {
	anyOrigin := len(cfg.Origins) == 0
	allowed := make(map[string]struct{}, len(cfg.Origins))
	for _, o := range cfg.Origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}
	methods := "GET, POST, OPTIONS"
	if len(cfg.Methods) > 0 {
		methods = strings.Join(cfg.Methods, ", ")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			allowOrigin := ""
			if anyOrigin {
				allowOrigin = "*"
			} else {
				h.Add("Vary", "Origin")
				if _, ok := allowed[strings.ToLower(origin)]; ok {
					allowOrigin = origin
				}
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if allowOrigin != "" {
				h.Set("Access-Control-Allow-Origin", allowOrigin)
			}
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			if allowOrigin != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
					h.Set("Access-Control-Allow-Headers", rh)
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
