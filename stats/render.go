package stats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// ReportRender 定義輸出行為
type ReportRender interface {
	Write(w io.Writer, r *Report) error
}

// Json渲染
type JsonReportRender struct{}

func (jr *JsonReportRender) Write(w io.Writer, r *Report) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLReportRender struct{}

func (yr *YAMLReportRender) Write(w io.Writer, r *Report) error {
	// 不管欄位，只要是陣列（YAML Sequence），就維持外層預設展開；
	// 只有「最內層的一維陣列」或「本身就是一維陣列」時才輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// 表格渲染
type TableReportRender struct{}

func (tr *TableReportRender) Write(w io.Writer, r *Report) error {
	r.StdOut(w)
	return nil
}

// NewReportRender 依格式名稱（json|yaml|table）選擇渲染器
func NewReportRender(format string) (ReportRender, bool) {
	switch format {
	case "json":
		return &JsonReportRender{}, true
	case "yaml", "yml":
		return &YAMLReportRender{}, true
	case "table", "":
		return &TableReportRender{}, true
	default:
		return nil, false
	}
}

type ConvergenceRender interface {
	Write(w io.Writer, c *ConvergenceReport) error
}

// Json渲染
type JsonConvergenceRender struct{}

func (jr *JsonConvergenceRender) Write(w io.Writer, c *ConvergenceReport) error {
	return json.NewEncoder(w).Encode(c)
}

// YAML渲染
type YAMLConvergenceRender struct{}

func (yr *YAMLConvergenceRender) Write(w io.Writer, c *ConvergenceReport) error {
	return forceReadableList(w, c)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 若該 sequence 內部「沒有子 sequence」，代表它是最內層的一維（或本身就是一維）=> 用 flow style: [...]
	// - 若該 sequence 內部「有子 sequence」，代表它是外層維度 => 保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		// 先判斷這個 sequence 是否包含子 sequence 或 mapping（代表外層維度）
		nested := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				nested = true
				break
			}
		}

		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		// 最內層一維（或本身就是一維）=> flow style: [a, b, c]
		if !nested {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		// Scalar / Alias 等不處理
		return
	}
}
