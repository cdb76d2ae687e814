package middleware

import (
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader 回應中帶回的請求編號，方便對照 access log
const RequestIDHeader = "X-Request-Id"

// RequestID 產生（或沿用上游的 X-Request-Id）請求編號並寫回回應 header
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetReqId(r); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	}))
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}

// GetReqIdNumPart 只取 chi 產生的 "host/prefix-000123" 最後的流水號
func GetReqIdNumPart(r *http.Request) string {
	str := GetReqId(r)
	if len(str) == 0 {
		return ""
	}
	i := strings.LastIndex(str, "-")
	if i < 0 || i+1 >= len(str) {
		return str
	}
	return str[i+1:]
}
