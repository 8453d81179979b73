package sampler

import (
	"hash/fnv"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/propcheck/internal/groundtruth"
	"github.com/roach88/propcheck/internal/ir"
)

// DefaultSeed matches the seed historically used for published runs.
const DefaultSeed uint64 = 42

// Options selects the sampling policy.
type Options struct {
	// NoSample returns the full labelled union instead of a balanced sample.
	NoSample bool

	// AtLeastN tops up a non-empty balanced sample to at least N tasks.
	AtLeastN int

	// Manifest, when non-nil, replaces sampling with an explicit task list.
	Manifest []ir.Task
}

// Sampler draws verification tasks for one property at a time.
type Sampler struct {
	seed   uint64
	opts   Options
	logger *slog.Logger
}

// New creates a sampler. A nil logger uses slog.Default().
func New(seed uint64, opts Options, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{seed: seed, opts: opts, logger: logger}
}

// Sample returns the tasks for property. versions is the property's version
// universe in the order tasks should appear when no sampling is applied.
func (s *Sampler) Sample(property string, versions []string, truths *groundtruth.Index) []ir.Task {
	if s.opts.Manifest != nil {
		return s.fromManifest(property, versions, truths)
	}

	var holds, violated, labelled []string
	for _, v := range versions {
		task := ir.Task{Property: property, Version: v}
		switch truths.Lookup(task) {
		case ir.Holds:
			holds = append(holds, v)
		case ir.Violated:
			violated = append(violated, v)
		default:
			s.logger.Warn("ground truth not found, skipping version",
				"property", property, "version", v)
			continue
		}
		labelled = append(labelled, v)
	}

	if s.opts.NoSample {
		return tasksFor(property, labelled)
	}

	rng := s.rngFor(property)
	k := min(len(holds), len(violated))
	s.logger.Debug("balanced sample", "property", property,
		"holds", len(holds), "violated", len(violated), "k", k)
	if k == 0 {
		if len(labelled) > 0 {
			s.logger.Warn("no balanced comparison possible, property sampled empty",
				"property", property, "holds", len(holds), "violated", len(violated))
		}
		return nil
	}

	picked := append(draw(rng, holds, k), draw(rng, violated, k)...)

	if n := s.opts.AtLeastN; n > 0 && len(picked) < n {
		taken := make(map[string]bool, len(picked))
		for _, v := range picked {
			taken[v] = true
		}
		var pool []string
		for _, v := range labelled {
			if !taken[v] {
				pool = append(pool, v)
			}
		}
		extra := min(n-len(picked), len(pool))
		if extra > 0 {
			picked = append(picked, draw(rng, pool, extra)...)
			s.logger.Info("topped up sample", "property", property, "added", extra, "at_least", n)
		}
	}

	return tasksFor(property, picked)
}

// SampleAll samples every property in order and concatenates the results.
func (s *Sampler) SampleAll(properties []string, versions func(string) []string, truths *groundtruth.Index) []ir.Task {
	var tasks []ir.Task
	for _, p := range properties {
		tasks = append(tasks, s.Sample(p, versions(p), truths)...)
	}
	return tasks
}

func (s *Sampler) fromManifest(property string, versions []string, truths *groundtruth.Index) []ir.Task {
	allowed := make(map[string]bool, len(versions))
	for _, v := range versions {
		allowed[v] = true
	}
	var tasks []ir.Task
	for _, t := range s.opts.Manifest {
		if t.Property != property || !allowed[t.Version] {
			continue
		}
		if !truths.Has(t) {
			s.logger.Warn("ground truth not found, skipping manifest task",
				"property", t.Property, "version", t.Version)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// rngFor derives the property's generator from the run seed.
func (s *Sampler) rngFor(property string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(property))
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}

// draw picks k distinct elements of pool uniformly at random, in draw order.
// pool is not modified.
func draw(rng *rand.Rand, pool []string, k int) []string {
	work := append([]string(nil), pool...)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:k]
}

func tasksFor(property string, versions []string) []ir.Task {
	if len(versions) == 0 {
		return nil
	}
	tasks := make([]ir.Task, len(versions))
	for i, v := range versions {
		tasks[i] = ir.Task{Property: property, Version: v}
	}
	return tasks
}
