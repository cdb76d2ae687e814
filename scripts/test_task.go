package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// lineFilter 決定一行輸出要怎麼印；回傳 false 代表略過
type lineFilter func(line string) bool

// onlyResults 等同 grep -E '^(ok|FAIL)'，但保留編譯錯誤避免完全看不到失敗原因
func onlyResults(line string) bool {
	switch {
	case strings.HasPrefix(line, "ok"):
		PrintGreen(line)
	case strings.HasPrefix(line, "FAIL"):
		PrintRed(line)
	case strings.Contains(line, "build failed") || strings.Contains(line, "setup failed"):
		PrintRed(line)
	default:
		return false
	}
	return true
}

// detail 等同 grep -v '\[no test files\]'，ok/FAIL 上色
func detail(line string) bool {
	switch {
	case strings.Contains(line, "[no test files]"):
		return false
	case strings.HasPrefix(line, "ok"):
		PrintGreen(line)
	case strings.HasPrefix(line, "FAIL"):
		PrintRed(line)
	default:
		fmt.Println(line)
	}
	return true
}

// cleanCache 對應 go clean -testcache
func cleanCache() {
	cmd := exec.Command("go", "clean", "-testcache")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("go clean -testcache failed: %v", err))
		os.Exit(1)
	}
}

// goStream 執行 go 指令，stdout/stderr 合併（2>&1）後逐行交給 filter；
// filter 為 nil 時直接輸出。指令失敗時印出 failMsg 並以 exit 1 結束。
func goStream(failMsg string, filter lineFilter, args ...string) {
	cmd := exec.Command("go", args...)
	if filter == nil {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			PrintRed("\n" + failMsg + "\n")
			os.Exit(1)
		}
		return
	}

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		PrintRed(fmt.Sprintf("failed to get stdout pipe: %v", err))
		os.Exit(1)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		PrintRed(fmt.Sprintf("Error starting go %s: %v", args[0], err))
		os.Exit(1)
	}
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		filter(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		PrintRed(fmt.Sprintf("scanner error: %v", err))
	}
	if err := cmd.Wait(); err != nil {
		PrintRed("\n" + failMsg + "\n")
		os.Exit(1)
	}
}

func runTest() {
	PrintGreen("running tests")
	cleanCache()
	goStream("Tests Finished with Errors", onlyResults, "test", "./...", "-cover", "-count=1")
}

func runTestAll() {
	PrintGreen("running tests (all with coverage)")
	cleanCache()
	goStream("Tests (with coverage) finished with errors", nil, "test", "./...", "-cover")
}

func runTestDetail() {
	PrintGreen("running tests (detail)")
	cleanCache()
	goStream("Tests (detail) finished with errors", detail, "test", "./...", "-v", "-count=1")
}

// runDemo 跑一次所有示範工作並輸出表格
func runDemo() {
	PrintGreen("running demo jobs")
	goStream("demo finished with errors", nil, "run", "./cmd/run", "-all")
}

// runProfile 以一千萬切片的 cubic 積分產生 cpu profile（build/profiling/cpu.pprof）
func runProfile() {
	PrintGreen("profiling 14*x^3 on [0,2] with 10,000,000 slices")
	goStream("profile finished with errors", nil, "run", "./cmd/run",
		"-expr", "14*x^3", "-from", "0", "-to", "2", "-n", "10000000", "-p", "cpu")
}
