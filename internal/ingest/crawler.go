package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	velocityPattern    = regexp.MustCompile(`^v_c`)
	distancesPattern   = regexp.MustCompile(`^distances\.dat`)
	calibrationPattern = regexp.MustCompile(`^norm\.fac`)
	fitPattern         = regexp.MustCompile(`^.*\.fit`)
)

// SetupFiles is one legacy bundle: the four files describing a dataset.
type SetupFiles struct {
	Dir             string
	VelocityFile    string
	DistancesFile   string
	CalibrationFile string
	FitFile         string
}

// Crawl walks root and returns one bundle per directory that contains any
// legacy file. When fitFile is non-empty it is used for every bundle and
// *.fit files in the tree are ignored. Bundles are ordered by directory.
func Crawl(root, fitFile string) ([]SetupFiles, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("crawl %s: %w", root, ErrNotDirectory)
	}

	bundles := make(map[string]*SetupFiles)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		dir := filepath.Dir(path)
		name := d.Name()

		b, ok := bundles[dir]
		if !ok {
			b = &SetupFiles{Dir: dir}
		}
		matched := true
		switch {
		case velocityPattern.MatchString(name):
			b.VelocityFile = path
		case distancesPattern.MatchString(name):
			b.DistancesFile = path
		case calibrationPattern.MatchString(name):
			b.CalibrationFile = path
		case fitFile == "" && fitPattern.MatchString(name):
			b.FitFile = path
		default:
			matched = false
		}
		if matched {
			bundles[dir] = b
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", root, err)
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("crawl %s: no files matching v_c, distances.dat, norm.fac or *.fit: %w",
			root, ErrMissingSetupFile)
	}

	dirs := make([]string, 0, len(bundles))
	for dir := range bundles {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	out := make([]SetupFiles, 0, len(dirs))
	for _, dir := range dirs {
		b := bundles[dir]
		if fitFile != "" {
			b.FitFile = fitFile
		}
		if missing := b.missing(); len(missing) > 0 {
			return nil, fmt.Errorf("%s: %s: %w", dir, strings.Join(missing, ", "), ErrMissingSetupFile)
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *SetupFiles) missing() []string {
	var out []string
	if s.VelocityFile == "" {
		out = append(out, "v_c")
	}
	if s.DistancesFile == "" {
		out = append(out, "distances.dat")
	}
	if s.CalibrationFile == "" {
		out = append(out, "norm.fac")
	}
	if s.FitFile == "" {
		out = append(out, "*.fit")
	}
	return out
}
