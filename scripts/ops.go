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
	"fmt"
	"os"
	"sort"
	"strings"
)

// tasks 所有可用的開發任務
var tasks = map[string]func(){
	"test":        runTest,
	"test-all":    runTestAll,
	"test-detail": runTestDetail,
	"demo":        runDemo,
	"profile":     runProfile,
}

func main() {
	// 沒有送任何參數進來，提示需要帶上 task
	if len(os.Args) < 2 {
		fmt.Printf("Usage: go run ./scripts [%s]\n", strings.Join(taskNames(), "|"))
		os.Exit(1)
	}
	task, ok := tasks[os.Args[1]]
	if !ok {
		PrintYellow(fmt.Sprintf("Unknown task: %s\n", os.Args[1]))
		os.Exit(1)
	}
	task()
}

func taskNames() []string {
	names := make([]string, 0, len(tasks))
	for k := range tasks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
