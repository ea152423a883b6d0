package main

import (
	"context"
	"flag"
	"fmt"
	"hbasekit/config"
	"hbasekit/mapper"
	"hbasekit/page"
	"hbasekit/store"
	"hbasekit/template"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type cli struct {
	tpl *template.Template
}

// run executes the command line args and releases the store connection afterwards.
func run(ctx context.Context, args []string, out io.Writer) error {
	c := &cli{}
	root := c.newRootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	err := root.ExecuteContext(ctx)
	if c.tpl != nil {
		if cerr := c.tpl.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (c *cli) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "hbasekit",
		Short:        "Runs template operations against an HBase cluster or a local badger store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFlags()
			if err != nil {
				return err
			}
			c.tpl, err = template.NewFromConfig(cfg, nil)
			return err
		},
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	root.AddCommand(
		c.newCreateTableCmd(),
		c.newDropTableCmd(),
		c.newPutCmd(),
		c.newGetCmd(),
		c.newScanCmd(),
		c.newCountCmd(),
		c.newPageCmd(),
		c.newDeleteCmd(),
	)
	return root
}

func (c *cli) newCreateTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-table <table> <family>...",
		Short: "Creates a table with the given column families",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.tpl.Admin(cmd.Context(), func(ctx context.Context, admin store.Admin) error {
				return admin.CreateTable(ctx, args[0], args[1:])
			})
		},
	}
}

func (c *cli) newDropTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop-table <table>",
		Short: "Deletes a table and all its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.tpl.Admin(cmd.Context(), func(ctx context.Context, admin store.Admin) error {
				return admin.DeleteTable(ctx, args[0])
			})
		},
	}
}

func (c *cli) newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "put <table> <row> <family:qualifier=value>...",
		Short:   "Writes cells to a row",
		Example: "  hbasekit put users user-1 info:name=alice info:age=42",
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			put := store.NewPut([]byte(args[1]))
			for _, arg := range args[2:] {
				column, value, err := parseCell(arg)
				if err != nil {
					return err
				}
				put.AddColumn(column.Family, column.Qualifier, []byte(value))
			}
			return c.tpl.SaveOrUpdate(cmd.Context(), args[0], put)
		},
	}
}

func (c *cli) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <row> [family[:qualifier]]...",
		Short: "Deletes a row, whole families or single columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			del := store.NewDelete([]byte(args[1]))
			for _, arg := range args[2:] {
				column, err := parseColumn(arg)
				if err != nil {
					return err
				}
				if len(column.Qualifier) == 0 {
					del.DeleteFamily(column.Family)
				} else {
					del.DeleteColumn(column.Family, column.Qualifier)
				}
			}
			return c.tpl.SaveOrUpdate(cmd.Context(), args[0], del)
		},
	}
}

func (c *cli) newGetCmd() *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "get <table> <row>...",
		Short: "Prints rows",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}
			var rows [][]byte
			for _, row := range args[1:] {
				rows = append(rows, []byte(row))
			}
			results, err := template.MultiGet(cmd.Context(), c.tpl, args[0], rows, false, mapper.Raw, cols...)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to return as family[:qualifier]")
	return cmd
}

func (c *cli) newScanCmd() *cobra.Command {
	var start, stop, prefix string
	var columns []string
	var limit int
	var reverse, includeStop, keysOnly bool
	cmd := &cobra.Command{
		Use:   "scan <table>",
		Short: "Prints the rows of a range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}
			scan := store.NewScan(rowArg(start), rowArg(stop))
			scan.Columns = cols
			scan.Limit = limit
			scan.Reversed = reverse
			scan.IncludeStopRow = includeStop
			if len(prefix) > 0 {
				scan.AddFilter(&store.PrefixFilter{Prefix: []byte(prefix)})
			}
			if keysOnly {
				scan.AddFilter(&store.KeyOnlyFilter{})
			}
			out := cmd.OutOrStdout()
			return c.tpl.ForEach(cmd.Context(), args[0], scan, func(result *store.Result, rowNum int) error {
				printResult(out, result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First row of the scan")
	cmd.Flags().StringVar(&stop, "stop", "", "Row the scan stops at")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only return rows starting with this prefix")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to return as family[:qualifier]")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max number of rows, 0 for all")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Scan from --start down to --stop")
	cmd.Flags().BoolVar(&includeStop, "include-stop", false, "Include the --stop row")
	cmd.Flags().BoolVar(&keysOnly, "keys-only", false, "Strip the cell values")
	return cmd
}

func (c *cli) newCountCmd() *cobra.Command {
	var start, stop string
	var includeStop bool
	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Counts the rows of a range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := c.tpl.RowCount(cmd.Context(), args[0], rowArg(start), rowArg(stop), includeStop)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First row to count")
	cmd.Flags().StringVar(&stop, "stop", "", "Row the count stops at")
	cmd.Flags().BoolVar(&includeStop, "include-stop", false, "Include the --stop row")
	return cmd
}

func (c *cli) newPageCmd() *cobra.Command {
	var start, stop, move, first, last string
	var columns []string
	var size int
	var desc bool
	cmd := &cobra.Command{
		Use:   "page <table>",
		Short: "Prints one page of rows in [--start, --stop]",
		Long: "Prints one page of rows in [--start, --stop]. To move through the pages pass the row keys printed " +
			"for the current page with --first and --last and set --move to next or previous.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}
			req := page.NewRequest(rowArg(start), rowArg(stop))
			req.PageSize = size
			req.Columns = cols
			req.PageFirstRowKey = rowArg(first)
			req.PageLastRowKey = rowArg(last)
			if desc {
				req.Direction = page.Desc
			}
			if req.Move, err = parseMove(move); err != nil {
				return err
			}
			res, err := template.FindPage(cmd.Context(), c.tpl, args[0], req, mapper.Raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printResults(out, res.Data)
			fmt.Fprintf(out, "total: %d first: %s last: %s\n", res.TotalCount, res.PageFirstRowKey,
				res.PageLastRowKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First row of the paged range")
	cmd.Flags().StringVar(&stop, "stop", "", "Last row of the paged range")
	cmd.Flags().StringVar(&move, "move", "first", "first, next or previous")
	cmd.Flags().StringVar(&first, "first", "", "Smallest row key of the current page")
	cmd.Flags().StringVar(&last, "last", "", "Largest row key of the current page")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to return as family[:qualifier]")
	cmd.Flags().IntVar(&size, "size", 0, "Page size, -hbase_default_page_size when 0")
	cmd.Flags().BoolVar(&desc, "desc", false, "Page from the largest row key down")
	return cmd
}

func rowArg(row string) []byte {
	if len(row) == 0 {
		return nil
	}
	return []byte(row)
}

func parseMove(move string) (page.Move, error) {
	switch move {
	case "", "first":
		return page.MoveFirst, nil
	case "next":
		return page.MoveNext, nil
	case "previous", "prev":
		return page.MovePrevious, nil
	default:
		return page.MoveFirst, fmt.Errorf("unknown move: %q", move)
	}
}

// parseColumn parses family[:qualifier].
func parseColumn(arg string) (store.Column, error) {
	family, qualifier, _ := strings.Cut(arg, ":")
	if len(family) == 0 {
		return store.Column{}, fmt.Errorf("invalid column: %q", arg)
	}
	return store.Column{Family: family, Qualifier: qualifier}, nil
}

func parseColumns(args []string) ([]store.Column, error) {
	var columns []store.Column
	for _, arg := range args {
		column, err := parseColumn(arg)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// parseCell parses family:qualifier=value.
func parseCell(arg string) (store.Column, string, error) {
	col, value, ok := strings.Cut(arg, "=")
	if !ok {
		return store.Column{}, "", fmt.Errorf("invalid cell %q, expected family:qualifier=value", arg)
	}
	column, err := parseColumn(col)
	if err != nil {
		return store.Column{}, "", err
	}
	if len(column.Qualifier) == 0 {
		return store.Column{}, "", fmt.Errorf("invalid cell %q, qualifier is missing", arg)
	}
	return column, value, nil
}

func printResults(out io.Writer, results []*store.Result) {
	for _, result := range results {
		printResult(out, result)
	}
}

func printResult(out io.Writer, result *store.Result) {
	if len(result.Cells) == 0 {
		fmt.Fprintf(out, "%s\n", result.Row)
		return
	}
	for _, cell := range result.Cells {
		fmt.Fprintf(out, "%s %s:%s=%s\n", result.Row, cell.Family, cell.Qualifier, cell.Value)
	}
}
