// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"log/slog"

	"github.com/zintix-labs/quadlab/server/api/index"
	v1 "github.com/zintix-labs/quadlab/server/api/v1"
	"github.com/zintix-labs/quadlab/server/netsvr"
	"github.com/zintix-labs/quadlab/server/netsvr/middleware"
	"github.com/zintix-labs/quadlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由；回傳的 Handler 持有 Runtime，關閉服務時由呼叫端 Close。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) (*v1.Handler, error) {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return nil, err
	}
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerIndex(svr)                // 2. 註冊主頁
	registerV1API(svr, h)             // 3. 註冊 v1 api
	return h, nil
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 註冊主頁
func registerIndex(svr netsvr.NetRouter) {
	svr.Get("/", index.IndexHandlerFn)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, h *v1.Handler) {
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/rules", h.Rules)
		vOne.Get("/jobs", h.Jobs)
		vOne.Get("/job", h.Job)

		vOne.Get("/integrate", h.Integrate)
		vOne.Get("/batch", h.Batch)
		vOne.Get("/converge", h.Converge)

		vOne.Post("/integrate", h.Integrate)
		vOne.Post("/batch", h.Batch)
		vOne.Post("/converge", h.Converge)
	})
}
