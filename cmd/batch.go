package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	stagehttp "github.com/tanq16/stagedl/internal/downloaders/http"
	"github.com/tanq16/stagedl/internal/output"
	"github.com/tanq16/stagedl/internal/scheduler"
	"github.com/tanq16/stagedl/internal/utils"
	"gopkg.in/yaml.v3"
)

type BatchEntry struct {
	Link      string `yaml:"link"`
	Segmented *bool  `yaml:"segmented,omitempty"`
	MinSize   string `yaml:"min_size,omitempty"`
}

// BatchFile maps a source section ("http", "s3") to its entries.
type BatchFile map[string][]BatchEntry

func newBatchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [OPTIONS]",
		Short: "Stage multiple links from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading YAML file: %w", err)
			}
			batchFile, err := parseBatchFile(data)
			if err != nil {
				return err
			}
			jobs := buildJobsFromBatch(newLinkResolver(globalConfig), batchFile)
			if len(jobs) == 0 {
				return fmt.Errorf("no valid jobs found in the batch file")
			}
			output.PrintHeader(fmt.Sprintf("Staging %d links with %d workers", len(jobs), workers))
			results := scheduler.Run(cmd.Context(), jobs, workers)
			output.ShowSummary(os.Stdout, results)
			for _, res := range results {
				if res.Err != nil {
					return fmt.Errorf("encountered failed download(s)")
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of links to download in parallel")
	return cmd
}

func parseBatchFile(data []byte) (BatchFile, error) {
	var batchFile BatchFile
	if err := yaml.Unmarshal(data, &batchFile); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %w", err)
	}
	return batchFile, nil
}

func normalizeSection(section string) string {
	switch strings.ToLower(strings.TrimSpace(section)) {
	case "http", "https":
		return "http"
	case "s3":
		return "s3"
	default:
		return ""
	}
}

// entryOptions applies per-entry overrides on top of the global engine options.
func entryOptions(base stagehttp.Options, entry BatchEntry) (stagehttp.Options, error) {
	opts := base
	if entry.Segmented != nil {
		opts.Segmented = *entry.Segmented
	}
	if entry.MinSize != "" {
		size, err := utils.ParseBytes(entry.MinSize)
		if err != nil {
			return opts, fmt.Errorf("invalid min_size for %s: %w", entry.Link, err)
		}
		opts.MinSize = size
	}
	return opts, nil
}

// buildJobsFromBatch resolves staging paths up front; s3 links are signed by
// each job's Prepare hook when a worker picks it up.
func buildJobsFromBatch(resolver *linkResolver, batchFile BatchFile) []scheduler.Job {
	sections := make([]string, 0, len(batchFile))
	for section := range batchFile {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	base := globalConfig.EngineOptions()
	var jobs []scheduler.Job
	for _, section := range sections {
		if normalizeSection(section) == "" {
			output.PrintWarning(fmt.Sprintf("Unknown section '%s', skipping", section))
			continue
		}
		for _, entry := range batchFile[section] {
			if entry.Link == "" {
				output.PrintWarning(fmt.Sprintf("Empty link found in %s section, skipping", section))
				continue
			}
			opts, err := entryOptions(base, entry)
			if err != nil {
				output.PrintWarning(err.Error())
				continue
			}
			engine, err := newEngine(opts)
			if err != nil {
				output.PrintWarning(fmt.Sprintf("Skipping %s: %v", entry.Link, err))
				continue
			}
			target, err := resolver.Target(entry.Link)
			if err != nil {
				output.PrintWarning(fmt.Sprintf("Skipping %s: %v", entry.Link, err))
				continue
			}
			job := scheduler.NewJob(entry.Link, target, engine)
			job.Prepare = resolver.Sign
			jobs = append(jobs, job)
		}
	}
	log.Debug().Str("op", "cmd/batch").Msgf("built %d jobs", len(jobs))
	return jobs
}
