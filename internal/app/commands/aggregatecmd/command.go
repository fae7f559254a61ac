package aggregatecmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/query"
)

const (
	groupByFlag   = "group-by"
	aggFlag       = "agg"
	fieldFlag     = "field"
	opFlag        = "op"
	thresholdFlag = "threshold"
)

type options struct {
	groupBy   []string
	agg       query.Aggregate
	field     string
	op        query.Operator
	threshold float64
	filter    bool
}

func New(_ context.Context) *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "aggregate FILE",
		Short: "group records of a JSON or YAML file and aggregate a field per group",
		Long: "Groups the records of FILE by one or more dotted paths and prints the aggregate of " +
			"every group. With --op only groups whose aggregate satisfies the comparison are printed.",
		Example: "  resedit aggregate orders.json --group-by customer.city,status --agg sum --field amount --op '>' --threshold 100",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := command.GetWorkingDir(cmd)
			if err != nil {
				return err
			}
			opts.filter = cmd.Flags().Changed(opFlag)
			path := args[0]
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}

			return command.WrapError(execute(cmd.OutOrStdout(), path, opts))
		},
	}
	cmd.Flags().StringSliceVar(&opts.groupBy, groupByFlag, nil, "dotted paths to group by, comma separated")
	cmd.Flags().Var(&opts.agg, aggFlag, "aggregate: count, sum, min, max or avg")
	cmd.Flags().StringVar(&opts.field, fieldFlag, "", "dotted path of the aggregated field, not needed for count")
	cmd.Flags().Var(&opts.op, opFlag, "comparison of the aggregate with the threshold: ==, !=, <, <=, >, >=")
	cmd.Flags().Float64Var(&opts.threshold, thresholdFlag, 0, "threshold the aggregate is compared with")
	_ = cmd.MarkFlagRequired(groupByFlag)
	return cmd
}

func execute(out io.Writer, path string, opts options) error {
	records, err := query.LoadRecords(path)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	groups, err := query.GroupByPaths(records, opts.groupBy...)
	if err != nil {
		return fmt.Errorf("group records: %w", err)
	}

	var field query.Accessor
	if opts.field != "" {
		s, err := query.NewSelector(opts.field)
		if err != nil {
			return fmt.Errorf("parse field %q: %w", opts.field, err)
		}
		field = s
	} else if opts.agg != query.Count {
		return fmt.Errorf("--%s is required for %s", fieldFlag, opts.agg)
	}

	var results []query.Aggregated[query.Key, any]
	if opts.filter {
		results, err = query.Filter(groups, query.Having{
			Aggregate: opts.agg,
			Field:     field,
			Operator:  opts.op,
			Threshold: opts.threshold,
		})
		if err != nil {
			return fmt.Errorf("filter groups: %w", err)
		}
	} else {
		for _, g := range groups {
			v, err := query.Compute(opts.agg, field, g.Items)
			if err != nil {
				return fmt.Errorf("group %v: %w", g.Values, err)
			}
			results = append(results, query.Aggregated[query.Key, any]{Group: g, Value: v})
		}
	}

	for _, r := range results {
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = fmt.Sprint(v)
		}
		if _, err := fmt.Fprintf(out, "%s: %s\n", strings.Join(parts, ", "),
			strconv.FormatFloat(r.Value, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
