package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	stagehttp "github.com/tanq16/stagedl/internal/downloaders/http"
)

// Fetcher is satisfied by *stagehttp.Engine.
type Fetcher interface {
	Fetch(ctx context.Context, target stagehttp.Target) (string, error)
}

type Job struct {
	ID      string
	Label   string // what the user asked for; the target URL may be presigned
	Target  stagehttp.Target
	Fetcher Fetcher
	// Prepare, when set, runs right before Fetch and returns the target to
	// fetch. Time-limited URLs are signed here so queued jobs do not expire.
	Prepare func(ctx context.Context, target stagehttp.Target) (stagehttp.Target, error)
}

type Result struct {
	Job      Job
	Path     string
	Err      error
	Started  time.Time
	Finished time.Time
}

func NewJob(label string, target stagehttp.Target, fetcher Fetcher) Job {
	return Job{ID: uuid.NewString(), Label: label, Target: target, Fetcher: fetcher}
}

// Run executes jobs on numWorkers workers and returns one result per job, in
// input order. Jobs that share a destination path run one after another on
// the same worker, so a path is never written by two downloads at once.
func Run(ctx context.Context, jobs []Job, numWorkers int) []Result {
	results := make([]Result, len(jobs))
	groups := groupByPath(jobs)
	numWorkers = max(1, min(numWorkers, len(groups)))

	groupCh := make(chan []int, len(groups))
	for _, g := range groups {
		groupCh <- g
	}
	close(groupCh)

	var wg sync.WaitGroup
	for i := range numWorkers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for group := range groupCh {
				for _, idx := range group {
					results[idx] = runJob(ctx, workerID, jobs[idx])
				}
			}
		}(i)
	}
	wg.Wait()
	return results
}

func runJob(ctx context.Context, workerID int, job Job) Result {
	res := Result{Job: job, Started: time.Now()}
	logger := log.With().Str("op", "scheduler").Str("job", job.ID).Int("worker", workerID).Logger()
	logger.Debug().Msgf("starting %s", job.Label)
	target := job.Target
	if job.Prepare != nil {
		target, res.Err = job.Prepare(ctx, target)
	}
	if res.Err == nil {
		res.Path, res.Err = job.Fetcher.Fetch(ctx, target)
	}
	res.Finished = time.Now()
	if res.Err != nil {
		logger.Error().Err(res.Err).Msgf("failed %s", job.Label)
	} else {
		logger.Info().Msgf("staged %s at %s", job.Label, res.Path)
	}
	return res
}

// groupByPath buckets job indexes by destination, keeping first-seen order.
func groupByPath(jobs []Job) [][]int {
	var groups [][]int
	index := make(map[string]int)
	for i, job := range jobs {
		g, ok := index[job.Target.Path]
		if !ok {
			g = len(groups)
			index[job.Target.Path] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
