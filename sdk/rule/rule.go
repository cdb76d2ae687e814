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

// Package rule 提供單一切片（slice）上的數值積分公式。
//
// 每條 Rule 只知道 f、a、b 三個輸入：不知道切片數、不知道整體區間，也不保存任何狀態。
// 切片與加總由 sdk/driver 負責。
//
// 所有公式對 h = b-a 為線性，因此 a > b 時回傳的是帶號面積（與 [b,a] 的結果互為相反數）。
// 端點矩形取的是切片的左/右端 min(a,b)、max(a,b)，不是參數順序。
package rule

// Func 是 R -> R 的一維函數（被積函數）。
type Func func(x float64) float64

// FallibleFunc 是可能失敗的被積函數；失敗時回傳的 error 會原封不動交回積分呼叫端。
type FallibleFunc func(x float64) (float64, error)

// Rule 計算 f 在單一切片 [a,b] 上的近似面積。
type Rule func(f Func, a, b float64) float64

// RectangleStart 左端點矩形：(b-a) * f(min(a,b))
func RectangleStart(f Func, a, b float64) float64 {
	return (b - a) * f(min(a, b))
}

// RectangleMid 中點矩形：(b-a) * f((a+b)/2)
func RectangleMid(f Func, a, b float64) float64 {
	return (b - a) * f((a+b)/2)
}

// RectangleEnd 右端點矩形：(b-a) * f(max(a,b))
func RectangleEnd(f Func, a, b float64) float64 {
	return (b - a) * f(max(a, b))
}

// Trapezoid 梯形：0.5 * (f(a)+f(b)) * (b-a)
func Trapezoid(f Func, a, b float64) float64 {
	return 0.5 * (f(a) + f(b)) * (b - a)
}

// Simpson13 Simpson 1/3（桶形公式）：(b-a)/6 * (f(a) + 4f(m) + f(b))
func Simpson13(f Func, a, b float64) float64 {
	m := (a + b) / 2
	return (b - a) / 6 * (f(a) + 4*f(m) + f(b))
}

// Simpson38 Simpson 3/8：以三等分點 q1、q2 取樣。
//
// 步長 s = (b-a)/3，公式 3s/8 * (f(a) + 3f(q1) + 3f(q2) + f(b))，即 (b-a)/8 * (...)。
func Simpson38(f Func, a, b float64) float64 {
	h := b - a
	q1 := a + h/3
	q2 := a + 2*h/3
	return h / 8 * (f(a) + 3*f(q1) + 3*f(q2) + f(b))
}

// Point 是 Rule 實際取樣到的一個點。
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Trace 執行一次 r(f, a, b)，同時記錄 r 取樣過的每一個點（依呼叫順序）。
//
// 給繪圖端使用：矩形、梯形、拋物線的形狀都能由這些點重建，不需要知道 Rule 的內部公式。
func Trace(r Rule, f Func, a, b float64) (float64, []Point) {
	pts := make([]Point, 0, 4)
	rec := func(x float64) float64 {
		y := f(x)
		pts = append(pts, Point{X: x, Y: y})
		return y
	}
	area := r(rec, a, b)
	return area, pts
}
