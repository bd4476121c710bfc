package api

import (
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/tiobe/closure-compiler/internal/conformance"
)

// LoadConformanceSources reads every path in paths through fs into the
// map[string][]byte shape internal/conformance.LoadConfigs expects,
// keeping the core itself filesystem-free (§6 "Persisted state: None")
// while letting pkg/api gather real files, an in-memory afero.MemMapFs
// tree built by a test, or anything else afero.Fs abstracts over.
// Independent read failures are aggregated with go-multierror instead of
// aborting on the first missing file, matching LoadConfigs' own
// per-document error handling.
func LoadConformanceSources(fs afero.Fs, paths []string) (map[string][]byte, error) {
	sources := make(map[string][]byte, len(paths))
	var errs *multierror.Error
	for _, p := range paths {
		contents, err := afero.ReadFile(fs, p)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		sources[filepath.Base(p)] = contents
	}
	return sources, errs.ErrorOrNil()
}

// LoadConformanceConfig is the common case: gather every path in paths
// through fs and parse the result into a *conformance.RuleSet in one
// call.
func LoadConformanceConfig(fs afero.Fs, paths []string) (*conformance.RuleSet, error) {
	sources, err := LoadConformanceSources(fs, paths)
	if err != nil {
		return nil, err
	}
	return conformance.LoadConfigs(sources)
}
