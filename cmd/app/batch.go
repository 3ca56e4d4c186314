package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ethpandaops/era-indexer/internal/config"
)

// RunBatch processes every era file matched by pattern (a glob or a
// directory, in which case every "*.era" file inside it is used),
// per-file output paths derived from baseOutput, per spec.md §6.
func RunBatch(ctx context.Context, cfg config.Config, pattern, verb, baseOutput string, opts Options) error {
	files, err := resolveBatchFiles(pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("app: --batch matched no era files for %q", pattern)
	}
	sort.Strings(files)

	var failures int
	for _, file := range files {
		output := perFileOutput(baseOutput, file)
		log.WithFields(log.Fields{"file": file, "verb": verb}).Info("app: batch processing era file")

		var rest []string
		if output != "" {
			rest = []string{output}
		}
		if err := RunLocal(ctx, cfg, file, verb, rest, opts); err != nil {
			log.WithFields(log.Fields{"file": file}).WithError(err).Error("app: batch file failed, continuing")
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("app: %d of %d era file(s) failed in batch, see logs", failures, len(files))
	}
	return nil
}

func resolveBatchFiles(pattern string) ([]string, error) {
	info, err := os.Stat(pattern)
	if err == nil && info.IsDir() {
		return filepath.Glob(filepath.Join(pattern, "*.era"))
	}
	return filepath.Glob(pattern)
}

// perFileOutput derives a per-file output path from the batch's base
// output, inserting the era file's stem ahead of the extension.
func perFileOutput(baseOutput, eraFile string) string {
	if baseOutput == "" {
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(eraFile), filepath.Ext(eraFile))
	for i := len(baseOutput) - 1; i >= 0; i-- {
		if baseOutput[i] == '.' {
			return baseOutput[:i] + "." + stem + baseOutput[i:]
		}
		if baseOutput[i] == '/' {
			break
		}
	}
	return baseOutput + "." + stem
}
