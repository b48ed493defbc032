package transform_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/datadriven"

	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/nestedset/transform"
	"github.com/matzehuels/nestree/pkg/observability"
	"github.com/matzehuels/nestree/pkg/pipeline"
)

// parseNodes reads one node per line: "<id> <parent|-> [leaf]".
func parseNodes(t *testing.T, input string) []nestedset.Node {
	var nodes []nestedset.Node
	for _, line := range strings.Split(input, "\n") {
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		if len(f) < 2 {
			t.Fatalf("malformed node line %q", line)
		}
		n := nestedset.Node{ID: f[0], Label: f[0]}
		if f[1] != "-" {
			n.Parent = f[1]
		}
		n.Leaf = len(f) > 2 && f[2] == "leaf"
		nodes = append(nodes, n)
	}
	return nodes
}

func formatNode(b *strings.Builder, n nestedset.Node, indexed bool) {
	parent := n.Parent
	if parent == "" {
		parent = "-"
	}
	if indexed {
		fmt.Fprintf(b, "pid=%d ppid=%d id=%s parent=%s lft=%d rgt=%d count=%d",
			n.PositionID, n.ParentPositionID, n.ID, parent, n.Left, n.Right, n.Count)
	} else {
		fmt.Fprintf(b, "id=%s parent=%s", n.ID, parent)
	}
	if n.Origin != "" {
		fmt.Fprintf(b, " origin=%s", n.Origin)
	}
	if n.Leaf {
		b.WriteString(" leaf")
	}
	b.WriteString("\n")
}

func formatNodes(nodes []nestedset.Node, indexed bool) string {
	var b strings.Builder
	for _, n := range nodes {
		formatNode(&b, n, indexed)
	}
	return b.String()
}

// rebuild runs the full pipeline without a cache.
func rebuild(nodes []nestedset.Node, complement, preorder bool) ([]nestedset.Node, error) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	runner.Hooks = observability.NoopPipelineHooks{}
	opts := pipeline.Options{Complement: complement, Order: pipeline.OrderEmission}
	if preorder {
		opts.Order = pipeline.OrderPreorder
	}
	res, err := runner.Rebuild(context.Background(), nodes, opts)
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

func TestDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/rebuild", func(t *testing.T, td *datadriven.TestData) string {
		nodes := parseNodes(t, td.Input)
		switch td.Cmd {
		case "unfold":
			out, err := transform.Unfold(nodes, 0)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return formatNodes(out, false)
		case "complement":
			out, err := transform.Complement(nodes)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return formatNodes(out, false)
		case "rebuild":
			out, err := rebuild(nodes, td.HasArg("complement"), td.HasArg("preorder"))
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return formatNodes(out, true)
		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}
