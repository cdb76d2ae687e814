package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	// 204 No Content, 304 Not Modified, 1xx Informational
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// CompressConfig
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// --- Encoding 協商 ---

const (
	encZstd = "zstd"
	encGzip = "gzip"
)

// pickEncoding 解析 Accept-Encoding（含 q 值），回傳 zstd / gzip / ""。
// q 值相同時 zstd 優先；q=0 代表明確拒絕；"*" 視為兩者皆可。
func pickEncoding(header string) string {
	if header == "" {
		return ""
	}
	q := map[string]float64{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		w := 1.0
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(k, "q") {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					w = f
				}
			}
		}
		q[name] = w
	}
	weight := func(enc string) float64 {
		if w, ok := q[enc]; ok {
			return w
		}
		if w, ok := q["*"]; ok {
			return w
		}
		return 0
	}
	zw, gw := weight(encZstd), weight(encGzip)
	switch {
	case zw > 0 && zw >= gw:
		return encZstd
	case gw > 0:
		return encGzip
	default:
		return ""
	}
}

// --- Compressor（每個設定各自持有 pool，避免不同等級的 writer 混用）---

type compressor struct {
	cfg      CompressConfig
	gzipPool sync.Pool
	zstdPool sync.Pool
}

func (c *compressor) getZstd(w io.Writer) *zstd.Encoder {
	if v := c.zstdPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic(err)
	}
	return zw
}

func (c *compressor) getGzip(w io.Writer) *gzip.Writer {
	if v := c.gzipPool.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw
	}
	gw, err := gzip.NewWriterLevel(w, c.cfg.GzipLevel)
	if err != nil {
		// 等級不合法時退回預設
		gw, _ = gzip.NewWriterLevel(w, gzip.DefaultCompression)
	}
	return gw
}

// encoder 取出對應 writer；release 會 Close（寫出 footer）並放回 pool
func (c *compressor) encoder(enc string, w io.Writer) (io.WriteCloser, func(disabled bool)) {
	if enc == encZstd {
		zw := c.getZstd(w)
		return zw, func(disabled bool) {
			// 204/304 時把 footer 丟到 io.Discard，不污染回應
			if disabled {
				zw.Reset(io.Discard)
			}
			_ = zw.Close()
			c.zstdPool.Put(zw)
		}
	}
	gw := c.getGzip(w)
	return gw, func(disabled bool) {
		if disabled {
			gw.Reset(io.Discard)
		}
		_ = gw.Close()
		c.gzipPool.Put(gw)
	}
}

// --- ResponseWriter Wrapper ---

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // 指向 gzip.Writer 或 zstd.Encoder
	disabled bool      // 標記是否動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	// 已停用壓縮 (204/304)，直接寫入底層
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	// 防禦隱式 Header 發送
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// --- Middleware 入口 ---

// NewCompression 依 cfg 建立壓縮 middleware（zstd 優先，其次 gzip）
func NewCompression(cfg CompressConfig) func(http.Handler) http.Handler {
	c := &compressor{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// [Guard 1] WebSocket / Head
			if r.Method == http.MethodHead || isWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			// [Guard 2] 避免二次壓縮
			if w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			enc := pickEncoding(r.Header.Get("Accept-Encoding"))
			if enc == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Encoding", enc)
			w.Header().Add("Vary", "Accept-Encoding")
			ew, release := c.encoder(enc, w)
			cw := &compressResponseWriter{ResponseWriter: w, w: ew}
			defer func() { release(cw.disabled) }()

			next.ServeHTTP(cw, r)
		})
	}
}

var defaultCompression = NewCompression(DefaultCompressConfig)

// Compression 使用 DefaultCompressConfig 的壓縮 middleware
func Compression(next http.Handler) http.Handler {
	return defaultCompression(next)
}
