package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/server/httperr"
	"github.com/zintix-labs/quadlab/server/svrcfg"
	"github.com/zintix-labs/quadlab/stats"
)

// ============================================================
// ** Handler **
// ============================================================

type Handler struct {
	rt      *quadlab.Runtime
	log     *slog.Logger
	timeout time.Duration
	workers int
}

func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	rt, err := sCfg.Quadlab.BuildRuntime(sCfg.MaxSlices)
	if err != nil {
		return nil, errs.Wrap(err, "build integrate handler error")
	}
	return &Handler{
		rt:      rt,
		log:     sCfg.Log,
		timeout: sCfg.Timeout,
		workers: sCfg.Workers,
	}, nil
}

// Runtime 給外層在關閉時呼叫 Close
func (h *Handler) Runtime() *quadlab.Runtime { return h.rt }

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

// writeJSON 先寫進 buffer，保證不會寫到一半才 error
func writeJSON(w http.ResponseWriter, v any) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		httperr.Errs(w, errs.Wrap(err, "json encode failed"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}

// writeReport 依 ?format= 輸出 json（預設）/ yaml / table
func writeReport(w http.ResponseWriter, r *http.Request, v any, rep *stats.Report) {
	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		writeJSON(w, v)
		return
	}
	render, ok := stats.NewReportRender(format)
	if !ok {
		httperr.Errs(w, errs.InvalidArgument("format", "unknown format %q", format))
		return
	}
	var b bytes.Buffer
	if err := rep.WriteWith(&b, render); err != nil {
		httperr.Errs(w, err)
		return
	}
	ct := "text/plain; charset=utf-8"
	if format == "yaml" || format == "yml" {
		ct = "application/yaml"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}
