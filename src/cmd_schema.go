package main

import (
	"fmt"
	"io"
	"strconv"

	"tpchArrow/src/catalog"
	"tpchArrow/src/queries"
	"tpchArrow/src/schema"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var table, strategy string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the Arrow schema of each table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strategy != schema.StrategyStatic {
				return errors.Errorf("only the %s schema can be printed without generating data", schema.StrategyStatic)
			}
			return printSchemas(cmd.OutOrStdout(), table)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "table to describe (default all)")
	cmd.Flags().StringVar(&strategy, "strategy", schema.StrategyStatic, "schema strategy")
	return cmd
}

func printSchemas(w io.Writer, table string) error {
	tables := catalog.Real()
	if table != "" {
		t, err := catalog.FromName(table)
		if err != nil {
			return err
		}
		tables = t.Members()
	}
	resolver := schema.NewStatic()
	for i, t := range tables {
		res, err := resolver.Resolve(t, nil)
		if err != nil {
			return errors.Trace(err)
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:\n%s", t, schema.FormatColumnsTable(res.Columns))
	}
	return nil
}

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query N",
		Short: "Print TPC-H query N (1-22)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Errorf("invalid query number %q", args[0])
			}
			q, err := queries.Query(n)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), q)
			return err
		},
	}
}
