package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/demo/demo_configs"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/expr"
	"github.com/zintix-labs/quadlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	// 臨時積分
	expr   string
	from   float64
	to     float64
	slices int
	rule   string
	policy string
	digits int
	exact  float64
	points bool
	areas  bool

	// catalog
	cfgDir   string
	job      string
	all      bool
	workers  int
	converge string
	rounds   int

	format    string
	pprofmode string
	rules     bool
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.expr, "expr", "", "integrand expression or builtin name, e.g. '14*x^3' or 'runge'")
	flag.Float64Var(&cfg.from, "from", 0, "lower limit a")
	flag.Float64Var(&cfg.to, "to", 1, "upper limit b")
	flag.IntVar(&cfg.slices, "n", 1000, "number of slices")
	flag.StringVar(&cfg.rule, "rule", "rectangle_mid", "integration rule (see -rules)")
	flag.StringVar(&cfg.policy, "policy", "permissive", "bound ordering policy: permissive|strict")
	flag.IntVar(&cfg.digits, "digits", driver.DefaultDigits, "rounding digits")
	flag.Float64Var(&cfg.exact, "exact", math.NaN(), "known exact value (for error report)")
	flag.BoolVar(&cfg.points, "points", false, "keep sample points per slice")
	flag.BoolVar(&cfg.areas, "areas", false, "keep per-slice areas")

	flag.StringVar(&cfg.cfgDir, "cfg", "", "extra job config directory (merged with demo jobs)")
	flag.StringVar(&cfg.job, "job", "", "catalog job name(s), comma separated")
	flag.BoolVar(&cfg.all, "all", false, "run every catalog job")
	flag.IntVar(&cfg.workers, "workers", 4, "number of workers for -job/-all")
	flag.StringVar(&cfg.converge, "converge", "", "catalog job name for convergence analysis")
	flag.IntVar(&cfg.rounds, "rounds", 8, "slice doublings for -converge (starting from -n)")

	flag.StringVar(&cfg.format, "format", "table", "output: table|json|yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.BoolVar(&cfg.rules, "rules", false, "list integration rules and builtin integrands, then exit")

	flag.Parse()
}

// 這裡解析並分支要執行的模式
func execute() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	cfgs := quadlab.Configs(demo_configs.FS)
	if cfg.cfgDir != "" {
		cfgs = append(cfgs, os.DirFS(cfg.cfgDir))
	}
	lab, err := quadlab.NewAuto(cfgs, nil)
	if err != nil {
		return err
	}

	switch {
	case cfg.rules:
		listRules(lab)
		return nil
	case cfg.converge != "":
		return runConverge(lab)
	case cfg.all || cfg.job != "":
		return runBatch(lab)
	default:
		return runAdhoc(lab)
	}
}

func listRules(lab *quadlab.Quadlab) {
	fmt.Println("rules:")
	for _, k := range lab.RuleKeys() {
		fmt.Println("  " + string(k))
	}
	fmt.Println("builtin integrands:")
	b := expr.Builtins()
	for _, n := range expr.BuiltinNames() {
		fmt.Printf("  %-12s %s\n", n, b[n])
	}
	fmt.Println("functions: " + strings.Join(expr.Functions(), " "))
}

func runAdhoc(lab *quadlab.Quadlab) error {
	if cfg.expr == "" {
		return errs.InvalidArgument("expr", "-expr is required (or use -job / -all / -converge)")
	}
	rt, err := lab.BuildRuntime(0)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := &quadlab.IntegrateRequest{
		Expr:   cfg.expr,
		From:   cfg.from,
		To:     cfg.to,
		Slices: cfg.slices,
		Rule:   cfg.rule,
		Policy: cfg.policy,
		Digits: &cfg.digits,
		Points: cfg.points,
		Areas:  cfg.areas,
	}
	if !math.IsNaN(cfg.exact) {
		req.Exact = &cfg.exact
	}
	banner(fmt.Sprintf("[EXPR:%s] [RULE:%s] [N:%d]", cfg.expr, cfg.rule, cfg.slices))
	rep, err := rt.Integrate(context.Background(), req)
	if err != nil {
		return err
	}
	return write(rep)
}

func runBatch(lab *quadlab.Quadlab) error {
	var names []string
	if !cfg.all {
		for _, n := range strings.Split(cfg.job, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	banner(fmt.Sprintf("[WORKERS:%d] [JOBS:%d]", cfg.workers, max(len(names), len(lab.IDs()))))
	results, used, err := lab.Batch(context.Background(), names, cfg.workers, cfg.format == "table")
	if err != nil {
		return err
	}
	evals := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Name, r.Err)
			continue
		}
		evals += r.Report.Summary.Evals
		if err := write(r.Report); err != nil {
			return err
		}
	}
	if cfg.format == "table" {
		stats.FormatDuration(os.Stdout, used, evals)
	}
	if n := quadlab.Failed(results); n > 0 {
		return errs.Warnf("%d of %d jobs failed", n, len(results))
	}
	return nil
}

func runConverge(lab *quadlab.Quadlab) error {
	ns := quadlab.DoublingSlices(cfg.slices, cfg.rounds)
	banner(fmt.Sprintf("[JOB:%s] [N:%d..%d]", cfg.converge, ns[0], ns[len(ns)-1]))
	cr, err := lab.Converge(context.Background(), cfg.converge, ns)
	if err != nil {
		return err
	}
	switch cfg.format {
	case "json":
		return (&stats.JsonConvergenceRender{}).Write(os.Stdout, cr)
	case "yaml":
		return (&stats.YAMLConvergenceRender{}).Write(os.Stdout, cr)
	default:
		cr.Out(os.Stdout)
		return nil
	}
}

func write(rep *stats.Report) error {
	render, ok := stats.NewReportRender(cfg.format)
	if !ok {
		return errs.InvalidArgument("format", "unknown format %q", cfg.format)
	}
	return rep.WriteWith(os.Stdout, render)
}

// banner 只在表格模式輸出，json/yaml 保持可被管線解析
func banner(s string) {
	if cfg.format != "table" {
		return
	}
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Printf("%s%s%s\n", green, s, reset)
}

func (cfg *config) valid() error {
	if _, ok := stats.NewReportRender(cfg.format); !ok {
		return errs.InvalidArgument("format", "unknown format %q", cfg.format)
	}
	// 工作協程檢查(併發數)
	if cfg.workers < 1 {
		return errs.InvalidArgument("workers", "workers must > 0")
	}
	if cfg.converge != "" && (cfg.rounds < 2 || cfg.rounds > 20) {
		return errs.InvalidArgument("rounds", "rounds must be between 2 and 20")
	}
	if cfg.cfgDir != "" {
		if _, err := fs.Stat(os.DirFS(cfg.cfgDir), "."); err != nil {
			return errs.WrapWarn(err, "cfg dir not readable")
		}
	}
	return nil
}
