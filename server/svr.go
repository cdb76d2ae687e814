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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/server/api"
	"github.com/zintix-labs/quadlab/server/app"
	"github.com/zintix-labs/quadlab/server/netsvr"
	"github.com/zintix-labs/quadlab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger 與 Quadlab）。
//  2. 依 SvrCfg.Addr / Timeout 建立 HTTP server（netsvr）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run()，結束後關閉 Runtime。
//
// 注意：Run 不綁定任何檔案路徑或環境變數策略；所有依賴都應透過 SvrCfg 明確注入。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	svr := netsvr.NewChiServerWithTimeout(sCfg.Addr, sCfg.Timeout)
	serve(sCfg, svr)
}

// RunWithSvr 與 Run() 相同，但允許呼叫端注入自訂的 NetSvr（自訂 listener、TLS、
// 或把 quadlab 的 routes 掛到既有服務中）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true（避免注入不完整的 server）。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}
	serve(sCfg, svr)
}

func serve(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	// 註冊 Api
	h, err := api.RegisterRoutes(svr, sCfg)
	if err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}
	defer h.Runtime().Close()

	// 運行
	app := app.NewWith(svr, h.Runtime())
	sCfg.Log.Info("[quadlab] listening",
		slog.String("addr", svr.Address()),
		slog.Int("jobs", len(sCfg.Quadlab.IDs())),
		slog.Int("max_slices", sCfg.MaxSlices),
		slog.Duration("timeout", sCfg.Timeout),
	)
	if err := app.Run(); err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
	}
}
