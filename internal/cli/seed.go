package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// seedJob is one entity and the file its initial records come from.
type seedJob struct {
	entity string
	path   string
	seeded bool
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <entity> <file.json> [<entity> <file.json>...]",
		Short: "Seed entity collections from JSON files",
		Long: `Seed stores each file's JSON array as the entity's collection, but only
when nothing is stored for that entity yet. Existing data is never touched
and seed records are written as-is. Pairs are processed concurrently, so an
entity may appear only once.

Example:
  kennel seed Product products.json users users.json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("%w: expected <entity> <file.json> pairs, got %d args", errUsage, len(args))
			}
			seen := make(map[string]bool, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				if seen[args[i]] {
					return fmt.Errorf("%w: entity %q named twice", errUsage, args[i])
				}
				seen[args[i]] = true
			}
			return nil
		},
		RunE: a.runSeed,
	}
}

func (a *app) runSeed(cmd *cobra.Command, args []string) error {
	jobs := make([]seedJob, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		jobs = append(jobs, seedJob{entity: args[i], path: args[i+1]})
	}

	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			data, err := os.ReadFile(job.path)
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", errUsage, job.path, err)
			}
			records, err := parseRecords(data)
			if err != nil {
				return fmt.Errorf("seed %s from %s: %w", job.entity, job.path, err)
			}
			job.seeded, err = svc.TryInitialize(ctx, job.entity, records)
			if err != nil {
				return err
			}
			a.log.Debug("seed processed",
				zap.String("entity", job.entity),
				zap.String("file", job.path),
				zap.Bool("seeded", job.seeded))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		out := make(map[string]bool, len(jobs))
		for _, job := range jobs {
			out[job.entity] = job.seeded
		}
		return writeJSON(w, out)
	}
	for _, job := range jobs {
		if job.seeded {
			fmt.Fprintf(w, "Initialized %s from %s\n", job.entity, job.path)
		} else {
			fmt.Fprintf(w, "Skipped %s: data already stored\n", job.entity)
		}
	}
	return nil
}

