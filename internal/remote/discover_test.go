package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHTMLParsesMatchingHrefsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `
			<a href="mainnet-00001-aaaaaaaa.era">one</a>
			<a href="mainnet-00002-bbbbbbbb.era">two</a>
			<a href="not-an-era-file.txt">skip</a>
		`)
	}))
	defer server.Close()

	namePattern := regexp.MustCompile(`^mainnet-(\d{5})-[0-9a-f]{8}\.era$`)
	results, err := listHTML(context.Background(), server.Client(), server.URL, namePattern)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(1), results[0].EraNumber)
	assert.Equal(t, uint64(2), results[1].EraNumber)
}

func TestListHTMLPropagatesNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := listHTML(context.Background(), server.Client(), server.URL, regexp.MustCompile(`.*`))
	assert.Error(t, err)
}

func TestProbeOneReportsHitOnlyForOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/mainnet-00005.era" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	hit, url := probeOne(context.Background(), server.Client(), server.URL, "mainnet", 5)
	assert.True(t, hit)
	assert.Contains(t, url, "mainnet-00005.era")

	miss, _ := probeOne(context.Background(), server.Client(), server.URL, "mainnet", 6)
	assert.False(t, miss)
}

// TestProbeOpenEndedStopsAfterLowHitStreak exercises the bounded-pool
// stopping rule: a server with only a handful of era files scattered below
// probeStopAvgHits per 100-candidate batch must cause probing to halt
// after probeStopStreak consecutive low batches rather than running forever.
func TestProbeOpenEndedStopsAfterLowHitStreak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mainnet-00000.era", "/mainnet-00001.era":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	results, err := probeOpenEnded(context.Background(), server.Client(), server.URL, "mainnet", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(0), results[0].EraNumber)
	assert.Equal(t, uint64(1), results[1].EraNumber)
}

func TestDiscoverFiltersToRequestedRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `
			<a href="mainnet-00001-aaaaaaaa.era">one</a>
			<a href="mainnet-00002-bbbbbbbb.era">two</a>
			<a href="mainnet-00003-cccccccc.era">three</a>
		`)
	}))
	defer server.Close()

	results, err := Discover(context.Background(), server.Client(), server.URL, "mainnet", 2, 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].EraNumber)
}
