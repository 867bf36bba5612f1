package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"tpchArrow/src/config"

	"github.com/docker/go-units"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newFilesCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect or remove exported objects",
	}
	withStore := func(run func(ctx context.Context, cfg *config.Config, store storage.ExternalStorage, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := g.load(nil)
			if err != nil {
				return err
			}
			if cfg.Common.Path == "" {
				return errors.New("common.path is required")
			}
			store, err := config.GetStore(cmd.Context(), cfg)
			if err != nil {
				return errors.Trace(err)
			}
			//nolint: errcheck
			defer store.Close()
			return run(cmd.Context(), cfg, store, cmd)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List objects under common.prefix",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, cfg *config.Config, store storage.ExternalStorage, cmd *cobra.Command) error {
			return ShowFiles(ctx, store, cfg.Common.Prefix, cmd.OutOrStdout())
		}),
	}, &cobra.Command{
		Use:   "clean",
		Short: "Delete every object under common.prefix",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, cfg *config.Config, store storage.ExternalStorage, cmd *cobra.Command) error {
			n, err := DeleteAllFiles(ctx, store, cfg.Common.Prefix, cfg.Common.Threads)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d files\n", n)
			return nil
		}),
	})
	return cmd
}

func listFiles(ctx context.Context, store storage.ExternalStorage, prefix string) (map[string]int64, error) {
	files := make(map[string]int64)
	err := store.WalkDir(ctx, &storage.WalkOption{SubDir: prefix}, func(path string, size int64) error {
		files[path] = size
		return nil
	})
	return files, errors.Trace(err)
}

// DeleteAllFiles removes every object under prefix and returns how many
// were deleted.
func DeleteAllFiles(ctx context.Context, store storage.ExternalStorage, prefix string, threads int) (int, error) {
	files, err := listFiles(ctx, store, prefix)
	if err != nil {
		return 0, err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(threads, 1))
	for name := range files {
		eg.Go(func() error {
			return errors.Annotatef(store.DeleteFile(egCtx, name), "delete %s", name)
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return len(files), nil
}

// ShowFiles prints the name and size of every object under prefix.
func ShowFiles(ctx context.Context, store storage.ExternalStorage, prefix string, w io.Writer) error {
	files, err := listFiles(ctx, store, prefix)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	var total int64
	for name, size := range files {
		names = append(names, name)
		total += size
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "Name: %s, Size: %d, Size (MiB): %f\n", name, files[name], float64(files[name])/units.MiB)
	}
	fmt.Fprintf(w, "Total: %d files, %s\n", len(names), units.BytesSize(float64(total)))
	return nil
}
