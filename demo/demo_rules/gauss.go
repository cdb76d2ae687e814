// Package demo_rules 示範如何在預設公式之外註冊自訂的切片積分公式。
package demo_rules

import (
	"math"

	"github.com/zintix-labs/quadlab/sdk/rule"
)

const (
	KeyGaussLegendre2 rule.Key = "gauss_legendre_2"
	KeyGaussLegendre3 rule.Key = "gauss_legendre_3"
)

var Reg = rule.NewRegistry()

// ============================================================
// ** 註冊 **
// ============================================================

func init() {
	if err := Reg.Register(KeyGaussLegendre2, GaussLegendre2); err != nil {
		panic(err)
	}
	if err := Reg.Register(KeyGaussLegendre3, GaussLegendre3); err != nil {
		panic(err)
	}
}

// GaussLegendre2 兩點 Gauss-Legendre，對三次以下多項式精確
func GaussLegendre2(f rule.Func, a, b float64) float64 {
	c, r := (a+b)/2, (b-a)/2
	t := r / math.Sqrt(3)
	return r * (f(c-t) + f(c+t))
}

// GaussLegendre3 三點 Gauss-Legendre，對五次以下多項式精確
func GaussLegendre3(f rule.Func, a, b float64) float64 {
	c, r := (a+b)/2, (b-a)/2
	t := r * math.Sqrt(0.6)
	return r / 9 * (5*f(c-t) + 8*f(c) + 5*f(c+t))
}
