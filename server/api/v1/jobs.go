package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/dto"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/server/httperr"
)

// Jobs 列出 catalog 內所有工作摘要
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	sum, err := h.rt.Quadlab().Summary()
	if err != nil {
		h.fail(w, "jobs summary", err)
		return
	}
	writeJSON(w, &dto.JobsResponse{Jobs: sum})
}

// Job 執行單一 catalog 工作：?name=cubic[&points=true][&areas=true][&format=table]
func (h *Handler) Job(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		httperr.Errs(w, errs.InvalidArgument("name", "name is required"))
		return
	}
	var opt quadlab.RunOptions
	for _, p := range []struct {
		key string
		dst *bool
	}{{"points", &opt.KeepPoints}, {"areas", &opt.KeepAreas}} {
		if s := q.Get(p.key); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				httperr.Errs(w, errs.InvalidArgument(p.key, "invalid %s: %v", p.key, err))
				return
			}
			*p.dst = v
		}
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	start := time.Now()
	rep, err := h.rt.RunJob(ctx, name, opt)
	if err != nil {
		h.fail(w, "run job", err)
		return
	}
	writeReport(w, r, dto.NewIntegrateResponse(rep, time.Since(start)), rep)
}

// Batch 以 worker pool 執行多個 catalog 工作
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeBatchRequest(r)
	if err != nil {
		h.fail(w, "decode batch request", err)
		return
	}
	workers := req.Workers
	if workers <= 0 || workers > h.workers {
		workers = h.workers
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	results, used, err := h.rt.Quadlab().Batch(ctx, req.Names, workers, false)
	if err != nil {
		h.fail(w, "batch", err)
		return
	}
	writeJSON(w, dto.NewBatchResponse(results, used))
}

// Converge 對 catalog 工作做切片數加倍的收斂階數估計
func (h *Handler) Converge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeConvergeRequest(r)
	if err != nil {
		h.fail(w, "decode converge request", err)
		return
	}
	if req.Start > h.rt.MaxSlices() {
		httperr.Errs(w, errs.InvalidArgument("start", "start %d exceeds limit %d", req.Start, h.rt.MaxSlices()))
		return
	}
	ns := quadlab.DoublingSlices(req.Start, req.Rounds)
	if last := ns[len(ns)-1]; last > h.rt.MaxSlices() {
		httperr.Errs(w, errs.InvalidArgument("rounds", "largest slice count %d exceeds limit %d", last, h.rt.MaxSlices()))
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	start := time.Now()
	cr, err := h.rt.Quadlab().Converge(ctx, req.Name, ns)
	if err != nil {
		h.fail(w, "converge", err)
		return
	}
	writeJSON(w, &dto.ConvergeResponse{Convergence: cr, UsedTime: time.Since(start).Milliseconds()})
}
