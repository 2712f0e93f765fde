package upgradegraph

import (
	"fmt"
	"sort"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Reason describes why a CSV breaks its operator's upgrade graph.
type Reason string

const (
	ReasonFirstReplaces       Reason = "replaces attr not expected for the first csv"
	ReasonReplacesNotPresent  Reason = "replaces attr refers to a csv thats not present"
	ReasonSkipsNotPresent     Reason = "skipped csv/csvs are not present in the list of bundles"
	ReasonSkipsNewer          Reason = "skipped csv version/s are newer than the current csv"
	ReasonReplacesNotPrevious Reason = "replaces attr doesnt point to the previous csv"

	ReasonSkipRangeMissing Reason = "missing olm.skipRange annotation (single-bundle-per-operator pattern)"
	ReasonSkipRangeInvalid Reason = "invalid format for olm.skipRange (single-bundle-per-operator pattern)"
	ReasonReplacesSet      Reason = "spec.replaces must be unset (single-bundle-per-operator pattern)"
	ReasonSkipsSet         Reason = "spec.skips must be unset (single-bundle-per-operator pattern)"
)

// Violation associates a Reason with the offending CSV.
type Violation struct {
	Operator string
	CSV      string
	Reason   Reason
	// Detail optionally carries the offending value.
	Detail string
}

func (v Violation) Error() string {
	msg := fmt.Sprintf("operator %s: csv %s: %s", v.Operator, v.CSV, v.Reason)
	if v.Detail != "" {
		msg += ": " + v.Detail
	}
	return msg
}

// Result holds every defect found in one validation pass.
type Result struct {
	Violations []Violation
	// InvalidVersions maps operator names to the spec.version values that
	// are not strict semver.
	InvalidVersions map[string][]string
}

func (r *Result) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// ByOperator returns the violations of one operator in discovery order.
func (r *Result) ByOperator(operator string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Operator == operator {
			out = append(out, v)
		}
	}
	return out
}

// Valid reports whether the pass found nothing.
func (r *Result) Valid() bool {
	return len(r.Violations) == 0 && len(r.InvalidVersions) == 0
}

// Err aggregates every violation and invalid version, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, v := range r.Violations {
		errs = append(errs, v)
	}

	operators := make([]string, 0, len(r.InvalidVersions))
	for op := range r.InvalidVersions {
		operators = append(operators, op)
	}
	sort.Strings(operators)
	for _, op := range operators {
		errs = append(errs, fmt.Errorf("operator %s: csv spec.version values are not valid semver: %v", op, r.InvalidVersions[op]))
	}

	return utilerrors.NewAggregate(errs)
}
