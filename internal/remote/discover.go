// Package remote discovers era files on a remote index (S3-style listing,
// HTML directory listing, or open-ended HEAD probing) and downloads them,
// per spec.md §4.5.
package remote

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxListPages      = 500
	probeBatchSize    = 100
	probeConcurrency  = 20
	probeStopStreak   = 3
	probeStopAvgHits  = 5
)

// EraFile is one discovered remote era archive.
type EraFile struct {
	EraNumber uint64
	URL       string
}

// listBucketResult mirrors the fields S3's ListObjectsV2 XML response uses.
type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

// Discover finds every era file for network in [start, end] (end < 0 means
// open-ended) under baseURL, trying S3-style listing, then HTML listing,
// then open-ended probing, per spec.md §4.5. Results are sorted by era
// number ascending.
func Discover(ctx context.Context, httpClient *http.Client, baseURL, network string, start int64, end int64) ([]EraFile, error) {
	namePattern := regexp.MustCompile(fmt.Sprintf(`^%s-(\d{5})-[0-9a-f]{8}\.era$`, regexp.QuoteMeta(network)))

	var found []EraFile
	var err error

	if strings.Contains(baseURL, "s3") {
		found, err = listS3(ctx, httpClient, baseURL, network, namePattern)
		if err != nil {
			log.WithError(err).Warn("remote: s3-style listing failed, falling back to html listing")
		}
	}

	if len(found) == 0 {
		found, err = listHTML(ctx, httpClient, baseURL, namePattern)
		if err != nil {
			log.WithError(err).Warn("remote: html listing failed, falling back to open-ended probing")
		}
	}

	if len(found) == 0 {
		found, err = probeOpenEnded(ctx, httpClient, baseURL, network, start)
		if err != nil {
			return nil, fmt.Errorf("remote: discover eras for %s: %w", network, err)
		}
	}

	filtered := found[:0]
	for _, f := range found {
		if f.EraNumber < uint64(start) {
			continue
		}
		if end >= 0 && f.EraNumber > uint64(end) {
			continue
		}
		filtered = append(filtered, f)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].EraNumber < filtered[j].EraNumber })
	return filtered, nil
}

func listS3(ctx context.Context, httpClient *http.Client, baseURL, network string, namePattern *regexp.Regexp) ([]EraFile, error) {
	var results []EraFile
	continuationToken := ""

	for page := 0; page < maxListPages; page++ {
		url := fmt.Sprintf("%s/?list-type=2&prefix=%s-&max-keys=1000", baseURL, network)
		if continuationToken != "" {
			url += "&continuation-token=" + continuationToken
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("construct s3 list request: %w", err)
		}
		res, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do s3 list request: %w", err)
		}

		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read s3 list response body: %w", err)
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("s3 list status not ok: %d", res.StatusCode)
		}

		var parsed listBucketResult
		if err := xml.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("unmarshal s3 list response: %w", err)
		}

		for _, obj := range parsed.Contents {
			if match := namePattern.FindStringSubmatch(obj.Key); match != nil {
				eraNumber, err := strconv.ParseUint(match[1], 10, 64)
				if err != nil {
					continue
				}
				results = append(results, EraFile{EraNumber: eraNumber, URL: baseURL + "/" + obj.Key})
			}
		}

		if !parsed.IsTruncated || parsed.NextContinuationToken == "" {
			break
		}
		continuationToken = parsed.NextContinuationToken
	}

	return results, nil
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

func listHTML(ctx context.Context, httpClient *http.Client, baseURL string, namePattern *regexp.Regexp) ([]EraFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("construct html listing request: %w", err)
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do html listing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read html listing body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("html listing status not ok: %d", res.StatusCode)
	}

	var results []EraFile
	for _, href := range hrefPattern.FindAllStringSubmatch(string(body), -1) {
		name := href[1]
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		match := namePattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		eraNumber, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			continue
		}
		results = append(results, EraFile{EraNumber: eraNumber, URL: strings.TrimRight(baseURL, "/") + "/" + name})
	}
	return results, nil
}

// probeOpenEnded HEAD-probes candidate era numbers starting at start, in
// batches of probeBatchSize with probeConcurrency concurrent requests,
// stopping after probeStopStreak consecutive batches whose average hit
// count falls below probeStopAvgHits (spec.md §4.5, §9's bounded-pool
// redesign flag).
func probeOpenEnded(ctx context.Context, httpClient *http.Client, baseURL, network string, start int64) ([]EraFile, error) {
	var results []EraFile
	consecutiveLowBatches := 0
	era := start

	for consecutiveLowBatches < probeStopStreak {
		batchHits := make([]*EraFile, probeBatchSize)

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(probeConcurrency)
		for i := 0; i < probeBatchSize; i++ {
			i := i
			candidate := uint64(era) + uint64(i)
			eg.Go(func() error {
				hit, url := probeOne(egCtx, httpClient, baseURL, network, candidate)
				if hit {
					batchHits[i] = &EraFile{EraNumber: candidate, URL: url}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("probe batch starting at era %d: %w", era, err)
		}

		hits := 0
		for _, h := range batchHits {
			if h != nil {
				results = append(results, *h)
				hits++
			}
		}

		if hits < probeStopAvgHits {
			consecutiveLowBatches++
		} else {
			consecutiveLowBatches = 0
		}
		era += probeBatchSize
	}

	return results, nil
}

func probeOne(ctx context.Context, httpClient *http.Client, baseURL, network string, era uint64) (bool, string) {
	url := fmt.Sprintf("%s/%s-%05d.era", strings.TrimRight(baseURL, "/"), network, era)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, ""
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return false, ""
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK, url
}
