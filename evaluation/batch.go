package evaluation

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// SampleFunc produces one image's sample (predictions plus ground truth).
// It typically wraps a detector call, so it may be slow and may fail.
type SampleFunc func(ctx context.Context, name string) (ImageSample, error)

// ImageStatus reports the outcome of one image in a batch. A failed image
// never aborts the batch; it is surfaced here alongside the successes.
type ImageStatus struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// BatchResult is the merged outcome of evaluating an image batch.
type BatchResult struct {
	Samples  []ImageSample  `json:"-"`
	Metrics  []ClassMetrics `json:"metrics"`
	MAP50    MAPResult      `json:"map50"`
	Failures []ImageStatus  `json:"failures,omitempty"`
}

// Evaluator runs a batch of images through sampling and metric
// computation. Images are independent, so sampling is fanned out across
// workers; per-image counters are merged afterward (the fold is
// commutative and associative). Matching within a single image stays
// sequential.
type Evaluator struct {
	// Classes lists class names in detector index order.
	Classes []string
	// IoUThreshold is the match threshold for metrics and mAP (0.5 when
	// unset).
	IoUThreshold float64
	// Workers caps concurrent sampling; defaults to GOMAXPROCS.
	Workers int
	// Logger receives per-image failure reports.
	Logger zerolog.Logger
}

// Evaluate samples every named image concurrently, then computes
// per-class metrics and mAP over the successful samples. A failing
// sample aborts only that image: it is logged, recorded in Failures and
// excluded from the accumulated statistics.
func (e *Evaluator) Evaluate(ctx context.Context, names []string, fetch SampleFunc) (*BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iouThreshold := e.IoUThreshold
	if iouThreshold == 0 {
		iouThreshold = 0.5
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(names) && len(names) > 0 {
		workers = len(names)
	}

	var (
		mu       sync.Mutex
		samples  []ImageSample
		failures []ImageStatus
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				sample, err := fetch(ctx, name)
				mu.Lock()
				if err != nil {
					e.Logger.Warn().Str("image", name).Err(err).Msg("image skipped")
					failures = append(failures, ImageStatus{Name: name, Err: err})
				} else {
					samples = append(samples, sample)
				}
				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		select {
		case jobs <- name:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	// Worker completion order is nondeterministic; restore input order so
	// repeated runs produce identical reports.
	sort.Slice(samples, func(a, b int) bool { return samples[a].Name < samples[b].Name })
	sort.Slice(failures, func(a, b int) bool { return failures[a].Name < failures[b].Name })

	return &BatchResult{
		Samples:  samples,
		Metrics:  ComputeClassMetrics(samples, e.Classes, iouThreshold),
		MAP50:    MeanAveragePrecision(samples, len(e.Classes), iouThreshold),
		Failures: failures,
	}, nil
}
