package v1

import (
	"net/http"
	"time"

	"github.com/zintix-labs/quadlab/dto"
)

// Integrate 臨時積分：GET 走 query，POST 走 JSON
func (h *Handler) Integrate(w http.ResponseWriter, r *http.Request) {
	// 請求方法、結構體校驗
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	in, err := dto.DecodeIntegrateRequest(r)
	if err != nil {
		h.fail(w, "decode integrate request", err)
		return
	}
	req, err := in.Parse()
	if err != nil {
		h.fail(w, "parse integrate request", err)
		return
	}

	// 請求解析完成，設置超時 context
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	start := time.Now()
	rep, err := h.rt.Integrate(ctx, req)
	if err != nil {
		h.fail(w, "integrate", err)
		return
	}
	writeReport(w, r, dto.NewIntegrateResponse(rep, time.Since(start)), rep)
}

// Rules 列出可用的積分法則、內建被積函數與表達式可用的函數
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, dto.NewRulesResponse(h.rt.Quadlab().RuleKeys()))
}
