// Package index 提供服務根路徑的簡易說明頁。
package index

import (
	"net/http"
)

const page = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>quadlab</title></head>
<body>
<h1>quadlab</h1>
<p>numerical integration service</p>
<ul>
<li><code>GET  /v1/rules</code> integration rules, named integrands, expression functions</li>
<li><code>GET|POST /v1/integrate</code> expr, from, to, slices (n), rule, policy, digits, exact, points, areas, format</li>
<li><code>GET  /v1/jobs</code> catalog summary</li>
<li><code>GET  /v1/job?name=</code> run one catalog job</li>
<li><code>GET|POST /v1/batch</code> run catalog jobs with a worker pool</li>
<li><code>GET|POST /v1/converge</code> convergence order by slice doubling</li>
</ul>
<p>example: <a href="/v1/integrate?expr=14*x%5E3&from=0&to=2&n=1000&format=table">/v1/integrate?expr=14*x^3&amp;from=0&amp;to=2&amp;n=1000&amp;format=table</a></p>
</body>
</html>
`

func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}
