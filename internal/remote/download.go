package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const downloadChunkSize = 20 * 1024 * 1024 // 20 MB, spec.md §4.5

// Download streams era's URL to downloadDir, retrying up to maxRetries
// times with exponential backoff. On success it returns the local path; on
// final failure it deletes any partial file and returns the error.
func Download(ctx context.Context, httpClient *http.Client, era EraFile, downloadDir string, maxRetries int) (string, error) {
	filename := filepath.Base(era.URL)
	localPath := filepath.Join(downloadDir, filename)

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries))
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := downloadOnce(ctx, httpClient, era.URL, localPath); err != nil {
			log.WithFields(log.Fields{"era": era.EraNumber, "attempt": attempt, "url": era.URL}).WithError(err).Warn("remote: download attempt failed, retrying")
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx))

	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("remote: download era %d after %d attempts: %w", era.EraNumber, attempt, err)
	}
	return localPath, nil
}

func downloadOnce(ctx context.Context, httpClient *http.Client, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("construct download request: %w", err)
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do download request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("download status not ok: %d", res.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file %s: %w", localPath, err)
	}
	defer out.Close()

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(out, res.Body, buf); err != nil {
		return fmt.Errorf("stream download body: %w", err)
	}
	return nil
}

// Cleanup removes a downloaded era file if cleanup is enabled.
func Cleanup(localPath string, cleanup bool) {
	if !cleanup {
		return
	}
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		log.WithField("path", localPath).WithError(err).Warn("remote: failed to clean up downloaded era file")
	}
}
