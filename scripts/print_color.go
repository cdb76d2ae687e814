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
)

// ANSI 顏色代碼 (Windows 10+ 的 cmd/powershell 皆支援)
type ANSI_COLOR string

const (
	ColorYellow ANSI_COLOR = "\033[33m"
	ColorGreen  ANSI_COLOR = "\033[32m"
	ColorRed    ANSI_COLOR = "\033[31m"
	ColorReset             = "\033[0m"
)

// noColor 遵循 https://no-color.org：設了 NO_COLOR 就輸出純文字（CI log 比較乾淨）
var noColor = os.Getenv("NO_COLOR") != ""

func fmtColor(color ANSI_COLOR, msg string) {
	if noColor {
		fmt.Println(msg)
		return
	}
	fmt.Printf("%s%s%s\n", color, msg, ColorReset)
}

func PrintRed(msg string)    { fmtColor(ColorRed, msg) }
func PrintGreen(msg string)  { fmtColor(ColorGreen, msg) }
func PrintYellow(msg string) { fmtColor(ColorYellow, msg) }
