package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/server/httperr"
)

// Recover 攔截 handler panic（例如被積函數 panic 一路傳上來），記錄堆疊並回 500。
// http.ErrAbortHandler 照常往上拋，讓 net/http 中止連線。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				if log != nil {
					log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
						slog.String("req_id", GetReqIdNumPart(r)),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rvr),
						slog.String("stack", string(debug.Stack())),
					)
				}
				if r.Header.Get("Connection") != "Upgrade" {
					httperr.Errs(w, errs.NewFatal(fmt.Sprintf("internal error: %v", rvr)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
