package upgradegraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/sirupsen/logrus"

	"github.com/mt-sre/managed-tenants-cli/pkg/addon"
	"github.com/mt-sre/managed-tenants-cli/pkg/bundle"
)

// Graphs maps operator names to the CSVs forming their upgrade graph.
type Graphs map[string][]*bundle.ClusterServiceVersion

// FromBundles groups the CSVs of bundles by operator name.
func FromBundles(bundles []*bundle.Bundle) Graphs {
	graphs := Graphs{}
	for _, b := range bundles {
		graphs[b.OperatorName] = append(graphs[b.OperatorName], b.CSV)
	}
	return graphs
}

// Operators returns the operator names in lexical order.
func (g Graphs) Operators() []string {
	ops := make([]string, 0, len(g))
	for op := range g {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

type Validator struct {
	singleBundle bool
	logger       *logrus.Entry
}

type Option func(*Validator)

// WithSingleBundle swaps chain validation for the single-bundle-per-operator
// checks on olm.skipRange.
func WithSingleBundle(single bool) Option {
	return func(v *Validator) {
		v.singleBundle = single
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return v
}

// versionFunc returns the version a CSV is released as.
type versionFunc func(csv *bundle.ClusterServiceVersion) string

// ValidateAddon validates every operator of an addon. Single-bundle checks
// use the bundle directory version rather than spec.version.
func (v *Validator) ValidateAddon(a *addon.AddonBundles) *Result {
	bundles := a.AllBundles()
	versions := make(map[*bundle.ClusterServiceVersion]string, len(bundles))
	for _, b := range bundles {
		versions[b.CSV] = b.Version.String()
	}
	return v.validate(FromBundles(bundles), func(csv *bundle.ClusterServiceVersion) string {
		if version, ok := versions[csv]; ok {
			return version
		}
		return csv.Version()
	})
}

// Validate checks each operator graph independently and collects every
// violation in a single pass.
func (v *Validator) Validate(graphs Graphs) *Result {
	return v.validate(graphs, (*bundle.ClusterServiceVersion).Version)
}

func (v *Validator) validate(graphs Graphs, bundleVersion versionFunc) *Result {
	res := &Result{}

	for _, op := range graphs.Operators() {
		csvs := graphs[op]
		logger := v.logger.WithField("operator", op)

		if invalid := invalidVersions(csvs); len(invalid) > 0 {
			if res.InvalidVersions == nil {
				res.InvalidVersions = map[string][]string{}
			}
			res.InvalidVersions[op] = invalid
		}

		before := len(res.Violations)
		if v.singleBundle {
			validateSingleBundle(op, csvs, bundleVersion, res)
		} else {
			validateChain(op, csvs, res)
		}
		logger.WithField("violations", len(res.Violations)-before).Debug("validated upgrade graph")
	}

	return res
}

func invalidVersions(csvs []*bundle.ClusterServiceVersion) []string {
	var invalid []string
	for _, csv := range csvs {
		if _, err := csv.SemverVersion(); err != nil {
			invalid = append(invalid, csv.Version())
		}
	}
	return invalid
}

// validateChain requires the CSVs, sorted by version, to form a simple
// chain. Each CSV replaces its predecessor, or replaces an earlier CSV and
// skips every version in between.
func validateChain(op string, csvs []*bundle.ClusterServiceVersion, res *Result) {
	if len(csvs) == 0 {
		return
	}

	sorted := append([]*bundle.ClusterServiceVersion(nil), csvs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareVersions(sorted[i].Version(), sorted[j].Version()) < 0
	})

	indexed := make(map[string]*bundle.ClusterServiceVersion, len(sorted))
	for _, csv := range sorted {
		indexed[csv.Name()] = csv
	}

	// CSVs whose replaces target does not exist are cut off from the chain.
	detached := map[string]bool{}
	report := func(csv *bundle.ClusterServiceVersion, reason Reason, detail string) {
		res.add(Violation{Operator: op, CSV: csv.Name(), Reason: reason, Detail: detail})
	}

	if first := sorted[0]; first.Replaces() != "" {
		report(first, ReasonFirstReplaces, first.Replaces())
	}

	for i := 1; i < len(sorted); i++ {
		cur, prev := sorted[i], sorted[i-1]

		if _, ok := indexed[cur.Replaces()]; !ok {
			report(cur, ReasonReplacesNotPresent, cur.Replaces())
			detached[cur.Name()] = true
		}

		if skips := cur.Skips(); len(skips) > 0 {
			var missing, newer []string
			for _, skip := range skips {
				version := versionFromName(skip)
				if target, ok := indexed[skip]; ok {
					version = target.Version()
				} else {
					missing = append(missing, skip)
				}
				if version != "" && compareVersions(version, cur.Version()) >= 0 {
					newer = append(newer, skip)
				}
			}
			if len(missing) > 0 {
				report(cur, ReasonSkipsNotPresent, strings.Join(missing, ", "))
			}
			if len(newer) > 0 {
				report(cur, ReasonSkipsNewer, strings.Join(newer, ", "))
			}
			continue
		}

		if cur.Replaces() != prev.Name() || detached[prev.Name()] {
			report(cur, ReasonReplacesNotPrevious, fmt.Sprintf("expected %s, got %q", prev.Name(), cur.Replaces()))
		}
	}
}

// validateSingleBundle enforces olm.skipRange ">=0.0.1 <{version}" and
// unset replaces/skips on every CSV.
func validateSingleBundle(op string, csvs []*bundle.ClusterServiceVersion, bundleVersion versionFunc, res *Result) {
	for _, csv := range csvs {
		report := func(reason Reason, detail string) {
			res.add(Violation{Operator: op, CSV: csv.Name(), Reason: reason, Detail: detail})
		}

		skipRange, ok := csv.SkipRange()
		expected := fmt.Sprintf(">=0.0.1 <%s", bundleVersion(csv))
		switch {
		case !ok:
			report(ReasonSkipRangeMissing, "")
		case stripSpaces(skipRange) != stripSpaces(expected):
			report(ReasonSkipRangeInvalid, fmt.Sprintf("expected %q but got %q", expected, skipRange))
		default:
			if _, err := semver.ParseRange(expected); err != nil {
				report(ReasonSkipRangeInvalid, err.Error())
			}
		}

		if csv.ReplacesSet() {
			report(ReasonReplacesSet, csv.Replaces())
		}
		if csv.SkipsSet() {
			report(ReasonSkipsSet, strings.Join(csv.Skips(), ", "))
		}
	}
}

// compareVersions orders by semver when both sides parse and falls back to
// plain string order otherwise.
func compareVersions(a, b string) int {
	va, errA := semver.Parse(a)
	vb, errB := semver.Parse(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}

// versionFromName extracts the version of a CSV name of the form
// {operator}.v{semver}, or returns the empty string.
func versionFromName(name string) string {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return ""
	}
	version := strings.TrimPrefix(parts[1], "v")
	if _, err := semver.Parse(version); err != nil {
		return ""
	}
	return version
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
