package expr

import (
	"math"
	"strconv"

	"github.com/zintix-labs/quadlab/errs"
)

// node 是語法樹節點
type node interface {
	eval(x float64) (float64, error)
	String() string
}

type number struct{ value float64 }

type variable struct{}

type negate struct{ operand node }

type binary struct {
	op          byte // + - * / ^
	left, right node
}

type call struct {
	name string
	fn   unaryFunc
	arg  node
}

func (n number) eval(float64) (float64, error) { return n.value, nil }

func (n number) String() string {
	return strconv.FormatFloat(n.value, 'g', -1, 64)
}

func (variable) eval(x float64) (float64, error) { return x, nil }

func (variable) String() string { return "x" }

func (n negate) eval(x float64) (float64, error) {
	v, err := n.operand.eval(x)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n negate) String() string { return "(-" + n.operand.String() + ")" }

func (n binary) eval(x float64) (float64, error) {
	l, err := n.left.eval(x)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(x)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, errs.Warnf("division by zero at x=%v", x)
		}
		return l / r, nil
	case '^':
		v := pow(l, r)
		if math.IsNaN(v) && !math.IsNaN(l) && !math.IsNaN(r) {
			return 0, errs.Warnf("power %v^%v is undefined at x=%v", l, r, x)
		}
		if math.IsInf(v, 0) && l == 0 {
			return 0, errs.Warnf("division by zero at x=%v", x)
		}
		return v, nil
	default:
		return 0, errs.Fatalf("unknown operator %q", n.op)
	}
}

func (n binary) String() string {
	return "(" + n.left.String() + " " + string(n.op) + " " + n.right.String() + ")"
}

func (n call) eval(x float64) (float64, error) {
	v, err := n.arg.eval(x)
	if err != nil {
		return 0, err
	}
	return n.fn(n.name, v, x)
}

func (n call) String() string { return n.name + "(" + n.arg.String() + ")" }

// pow 對小整數指數用乘法，避免 math.Pow 對 x^2、x^3 帶來額外誤差
func pow(base, exp float64) float64 {
	if exp == math.Trunc(exp) && math.Abs(exp) <= 16 {
		n := int(exp)
		neg := n < 0
		if neg {
			n = -n
		}
		r := 1.0
		for i := 0; i < n; i++ {
			r *= base
		}
		if neg {
			return 1 / r
		}
		return r
	}
	return math.Pow(base, exp)
}
