package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/traversal"
	"github.com/dd0wney/cluso-gridtrace/pkg/visualization"
)

type treeOpts struct {
	format    string
	layout    string
	direction string
	width     float64
	height    float64
	seed      int64
}

func newTreeCmd(a *app) *cobra.Command {
	var opts treeOpts

	cmd := &cobra.Command{
		Use:   "tree [EQUIPMENT...]",
		Short: "Build the equipment tree traced from the given equipment, or graph the whole network",
		Example: `  gridtrace tree --network feeder.yaml src
  gridtrace tree --network feeder.yaml src --direction DOWNSTREAM --format dot > feeder.dot
  gridtrace tree --network feeder.yaml --format json --layout force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}
			ops, err := a.state()
			if err != nil {
				return err
			}

			var (
				g     *visualization.Graph
				roots []*networktrace.TreeNode
			)
			if len(args) == 0 {
				g = visualization.FromNetwork(network)
			} else {
				start, err := findEquipment(network, args)
				if err != nil {
					return err
				}
				var dir *cim.FeederDirection
				if opts.direction != "" {
					d, ok := cim.ParseFeederDirection(strings.ToUpper(opts.direction))
					if !ok {
						return fmt.Errorf("unknown feeder direction %q", opts.direction)
					}
					if _, err := a.energise(cmd.Context(), network, ops); err != nil {
						return err
					}
					dir = &d
				}
				roots, err = a.buildTree(cmd, ops, start, dir)
				if err != nil {
					return err
				}
				g = visualization.FromTree(roots)
			}

			out := cmd.OutOrStdout()
			if opts.format == "text" {
				if roots == nil {
					return errors.New("text output needs start equipment")
				}
				printTree(out, roots)
				return nil
			}

			layout, err := visualization.NewLayout(opts.layout, &visualization.LayoutConfig{
				Width:  opts.width,
				Height: opts.height,
				Seed:   opts.seed,
			})
			if err != nil {
				return err
			}
			v := visualization.Visualize(g, layout)

			switch opts.format {
			case "dot":
				dot, err := v.ExportDOT("gridtrace", roots != nil)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, dot)
				return err
			case "json":
				data, err := v.ExportJSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			default:
				return fmt.Errorf("unknown format %q: want text, dot or json", opts.format)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, dot or json")
	cmd.Flags().StringVar(&opts.layout, "layout", "hierarchical", "layout for dot and json output: hierarchical, circular or force")
	cmd.Flags().StringVar(&opts.direction, "direction", "", "only follow this feeder direction: UPSTREAM or DOWNSTREAM")
	cmd.Flags().Float64Var(&opts.width, "width", 1200, "layout width")
	cmd.Flags().Float64Var(&opts.height, "height", 800, "layout height")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "seed for the force layout")
	return cmd
}

// buildTree traces from start, stopping at open switches, and returns the
// resulting equipment tree.
func (a *app) buildTree(cmd *cobra.Command, ops networktrace.NetworkStateOperators, start []cim.ConductingEquipment, dir *cim.FeederDirection) ([]*networktrace.TreeNode, error) {
	queue := traversal.BreadthFirst[*networktrace.Step[struct{}]]()
	if a.cfg.Queue == "depth" {
		queue = traversal.DepthFirst[*networktrace.Step[struct{}]]()
	}

	trace := networktrace.NewNetworkTrace[struct{}](ops, networktrace.AllSteps, queue(), nil,
		networktrace.WithName("equipment-tree"),
		networktrace.WithLogger(a.logger),
		networktrace.WithMetrics(a.metrics),
	)
	trace.AddCondition(ops.StopAtOpen())
	trace.AddCondition(networktrace.LimitEquipmentSteps(a.cfg.MaxSteps))
	if dir != nil {
		trace.AddCondition(ops.WithDirection(*dir))
	}

	tree := networktrace.NewEquipmentTreeBuilder()
	trace.AddStepAction(tree)
	for _, eq := range start {
		trace.AddStartEquipment(eq, struct{}{}, cim.PhaseCodeNone)
	}
	if err := trace.Run(cmd.Context(), false); err != nil {
		return nil, err
	}
	return tree.Roots(), nil
}

func printTree(w io.Writer, roots []*networktrace.TreeNode) {
	var walk func(n *networktrace.TreeNode)
	walk = func(n *networktrace.TreeNode) {
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", n.Depth), n.Equipment.MRID(), n.Equipment.Kind())
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
}
