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

// Package demo 把示範工作設定與示範公式組裝成可直接使用的 Quadlab / SvrCfg。
package demo

import (
	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/catalog"
	"github.com/zintix-labs/quadlab/demo/demo_configs"
	"github.com/zintix-labs/quadlab/demo/demo_rules"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/rule"
	"github.com/zintix-labs/quadlab/server/logger"
	"github.com/zintix-labs/quadlab/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewQuadlab()
	if err != nil {
		return nil, errs.Wrap(err, "new quadlab failed")
	}
	scfg := &svrcfg.SvrCfg{
		Log:     logger.NewDefaultAsyncLogger(logger.ModeDev),
		Quadlab: lab,
	}
	return scfg, nil
}

// NewQuadlab 預設公式 + demo_rules 的 Gauss-Legendre 公式
func NewQuadlab() (*quadlab.Quadlab, error) {
	return quadlab.NewAuto(
		quadlab.Configs(demo_configs.FS),
		quadlab.Rules(rule.Default(), demo_rules.Reg),
	)
}
