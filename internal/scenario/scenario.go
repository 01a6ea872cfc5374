package scenario

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/rag-nar1/Sketches/filter"
	"github.com/rag-nar1/Sketches/filter/bloom"
	"github.com/rag-nar1/Sketches/filter/counting"
	"github.com/rag-nar1/Sketches/filter/invertible"
	"github.com/rag-nar1/Sketches/internal/config"
)

var ErrCheckFailed = errors.New("scenario: check failed")

// bucketsPerWord is the fan-out used for the string filter.
const bucketsPerWord = 16

type Report struct {
	SelfScore    int
	DiffScore    int
	SketchBytes  int
	LocalOnly    []int64
	RemoteOnly   []int64
	PeelComplete bool
}

var identity filter.Identity[int64] = filter.IntegerIdentity[int64]

// Run exercises all three filters with cfg and reconciles cfg.Local against
// cfg.Remote through a CBOR encoded sketch.
func Run(cfg config.Config, log *zap.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	elements := unique(cfg.Elements)

	if err := runBasic(cfg, elements, log); err != nil {
		return Report{}, err
	}
	if err := runWords(cfg, log); err != nil {
		return Report{}, err
	}
	if err := runCounting(cfg, elements, log); err != nil {
		return Report{}, err
	}
	return runInvertible(cfg, log)
}

func shape[E any](cfg config.Config, elements []E, id filter.Identity[E]) filter.Configuration[E] {
	return filter.Configuration[E]{
		Elements:                  elements,
		NumberOfBuckets:           cfg.NumberOfBuckets,
		NumberOfBucketsPerElement: cfg.NumberOfBucketsPerElement,
		Identity:                  id,
	}
}

func runBasic(cfg config.Config, elements []int64, log *zap.Logger) error {
	bf, err := bloom.NewBloomFilter(shape(cfg, elements, identity))
	if err != nil {
		return err
	}
	bf.Add(cfg.Extra)
	for _, e := range append(slices.Clone(elements), cfg.Extra) {
		if !bf.ContainsProbably(e) {
			return fmt.Errorf("%w: basic filter lost %d", ErrCheckFailed, e)
		}
	}
	log.Info("basic bloom filter ok", zap.Int("elements", len(elements)+1))
	return nil
}

func runWords(cfg config.Config, log *zap.Logger) error {
	c := shape[string](cfg, cfg.Words, filter.StringIdentity)
	c.NumberOfBucketsPerElement = min(bucketsPerWord, cfg.NumberOfBuckets)
	bf, err := bloom.NewBloomFilter(c)
	if err != nil {
		return err
	}
	for _, w := range cfg.Words {
		if !bf.ContainsProbably(w) {
			return fmt.Errorf("%w: string filter lost %q", ErrCheckFailed, w)
		}
	}
	log.Info("string bloom filter ok", zap.Strings("words", cfg.Words), zap.Int("k", c.NumberOfBucketsPerElement))
	return nil
}

func runCounting(cfg config.Config, elements []int64, log *zap.Logger) error {
	cf, err := counting.NewCountingBloomFilter(shape(cfg, elements, identity))
	if err != nil {
		return err
	}
	members := elements
	if !slices.Contains(elements, cfg.Extra) {
		cf.Add(cfg.Extra)
		members = append(slices.Clone(elements), cfg.Extra)
	}
	for _, e := range members {
		if !cf.ContainsProbably(e) {
			return fmt.Errorf("%w: counting filter lost %d", ErrCheckFailed, e)
		}
	}
	for _, e := range members {
		cf.Remove(e)
	}
	for _, e := range members {
		if cf.ContainsProbably(e) {
			return fmt.Errorf("%w: counting filter still reports removed %d", ErrCheckFailed, e)
		}
	}
	log.Info("counting bloom filter ok", zap.Int("elements", len(members)))
	return nil
}

func runInvertible(cfg config.Config, log *zap.Logger) (Report, error) {
	local, err := invertible.NewInvertibleBloomFilter(shape(cfg, unique(cfg.Local), identity))
	if err != nil {
		return Report{}, err
	}
	remote, err := invertible.NewInvertibleBloomFilter(shape(cfg, unique(cfg.Remote), identity))
	if err != nil {
		return Report{}, err
	}

	var report Report
	self, err := local.Diff(local)
	if err != nil {
		return Report{}, err
	}
	if report.SelfScore = self.DifferenceScore(); report.SelfScore != 0 {
		return report, fmt.Errorf("%w: self diff score is %d", ErrCheckFailed, report.SelfScore)
	}

	// the peer only ever sends its sketch
	wire, err := remote.MarshalCBOR()
	if err != nil {
		return report, err
	}
	report.SketchBytes = len(wire)
	received, err := invertible.UnmarshalSketch(wire, identity)
	if err != nil {
		return report, err
	}

	diff, err := local.Diff(received)
	if err != nil {
		return report, err
	}
	report.DiffScore = diff.DifferenceScore()
	log.Info("difference score (lower score -> less different)",
		zap.Int("score", report.DiffScore),
		zap.Int("sketchBytes", report.SketchBytes))
	if report.DiffScore == 0 && !sameSet(cfg.Local, cfg.Remote) {
		return report, fmt.Errorf("%w: sets differ but diff score is 0", ErrCheckFailed)
	}

	listing, err := diff.Peel()
	switch {
	case err == nil:
		report.PeelComplete = true
	case errors.Is(err, filter.ErrPeelIncomplete):
		log.Warn("diff could not be fully listed", zap.Error(err))
	default:
		return report, err
	}
	for _, d := range listing.Local {
		report.LocalOnly = append(report.LocalOnly, filter.IntegerFromIdentity[int64](d))
	}
	for _, d := range listing.Remote {
		report.RemoteOnly = append(report.RemoteOnly, filter.IntegerFromIdentity[int64](d))
	}
	slices.Sort(report.LocalOnly)
	slices.Sort(report.RemoteOnly)
	log.Info("reconciled",
		zap.Int64s("localOnly", report.LocalOnly),
		zap.Int64s("remoteOnly", report.RemoteOnly),
		zap.Bool("complete", report.PeelComplete))
	return report, nil
}

func unique(values []int64) []int64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func sameSet(a, b []int64) bool {
	return slices.Equal(unique(a), unique(b))
}
