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

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/demo/demo_configs"
	"github.com/zintix-labs/quadlab/server"
	"github.com/zintix-labs/quadlab/server/logger"
	"github.com/zintix-labs/quadlab/server/svrcfg"
)

// This command is the "lab server" entrypoint for the quadlab repo.
// It serves the demo job catalog plus any -cfg directory.
func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server.Run(cfg)
}

type config struct {
	LogMode   string
	Addr      string
	CfgDir    string
	Timeout   time.Duration
	MaxSlices int
	Workers   int
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Addr, "addr", ":5808", "listen address")
	flag.StringVar(&cfg.CfgDir, "cfg", "", "extra job config directory")
	flag.DurationVar(&cfg.Timeout, "timeout", svrcfg.DefaultTimeout, "per request compute timeout")
	flag.IntVar(&cfg.MaxSlices, "max-slices", quadlab.DefaultMaxSlices, "slice limit for ad-hoc integrals")
	flag.IntVar(&cfg.Workers, "workers", svrcfg.DefaultWorkers, "batch workers")

	flag.Parse()

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	cfgs := quadlab.Configs(demo_configs.FS)
	if cfg.CfgDir != "" {
		cfgs = append(cfgs, os.DirFS(cfg.CfgDir))
	}
	lab, err := quadlab.NewAuto(cfgs, nil)
	if err != nil {
		return nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:       log,
		Quadlab:   lab,
		Addr:      cfg.Addr,
		Timeout:   cfg.Timeout,
		MaxSlices: cfg.MaxSlices,
		Workers:   cfg.Workers,
	}
	return sCfg, nil
}
