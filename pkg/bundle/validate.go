package bundle

import (
	"fmt"

	"github.com/operator-framework/api/pkg/manifests"
	"github.com/operator-framework/api/pkg/validation"
	"github.com/sirupsen/logrus"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// ValidateContent runs the default operator-framework bundle validators on
// the bundle's manifests. Warnings are logged, errors are returned.
func ValidateContent(b *Bundle, logger *logrus.Entry) error {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("bundle", b.Path)

	loaded, err := manifests.GetBundleFromDir(b.Path)
	if err != nil {
		return fmt.Errorf("%s: unable to load manifests for validation: %w", b, err)
	}

	var errs []error
	for _, result := range validation.DefaultBundleValidators.Validate(loaded.ObjectsToValidate()...) {
		for _, w := range result.Warnings {
			logger.WithField("manifest", result.Name).Warn(w.Error())
		}
		for _, e := range result.Errors {
			errs = append(errs, fmt.Errorf("%s: %w", result.Name, e))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: bundle content is invalid: %w", b, utilerrors.NewAggregate(errs))
	}
	return nil
}
