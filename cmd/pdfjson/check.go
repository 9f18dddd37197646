package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/ScriptRock/pdfjson"
	"github.com/ScriptRock/pdfjson/graph"
)

func newCheckCommand() *cobra.Command {
	var update bool
	var jobs int
	cmd := &cobra.Command{
		Use:   "check file.json...",
		Short: "Validate qpdf-v2 JSON documents",
		Long: `Check imports each document and reports every recorded error.
With --update the relaxed completeness rules of a partial update apply.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := ants.NewPool(jobs)
			if err != nil {
				return err
			}
			defer pool.Release()

			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				failed int
			)
			for _, path := range args {
				path := path
				wg.Add(1)
				if err := pool.Submit(func() {
					defer wg.Done()
					err := checkFile(path, update)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				}); err != nil {
					wg.Done()
					return err
				}
			}
			wg.Wait()
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "validate as a partial update instead of a complete document")
	cmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "number of files to validate concurrently")
	return cmd
}

func checkFile(path string, update bool) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	slog.Debug("checking", slog.String("file", path), slog.String("size", humanize.Bytes(uint64(fi.Size()))))
	if update {
		return pdfjson.UpdateFromJSONFile(graph.New(), path)
	}
	_, err = pdfjson.CreateFromJSONFile(path)
	return err
}
