package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURL:   srv.URL + "/cases.csv?limit={limit}&offset={offset}",
		Retries:   3,
		RetryWait: 2 * time.Second,
		Timeout:   5 * time.Second,
	})
	sleeps := &[]time.Duration{}
	c.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	return c, sleeps
}

func TestFetchPageSuccess(t *testing.T) {
	t.Parallel()

	var gotURL string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte("case_month,res_state\n2021-03,NY\n"))
	})

	batch, err := c.FetchPage(context.Background(), 100, 200)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "/cases.csv?limit=100&offset=200", gotURL)
}

func TestFetchPageRetriesWithFixedDelay(t *testing.T) {
	t.Parallel()

	var calls int
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchPage(context.Background(), 10, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDone)

	assert.Equal(t, 3, calls, "exactly Retries attempts are made")
	require.Len(t, *sleeps, 2, "a delay separates each pair of attempts")
	for _, d := range *sleeps {
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestFetchPageRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("case_month\n2021-01\n"))
	})

	batch, err := c.FetchPage(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, 3, calls)
}

func TestFetchPageRetriesTruncatedPayload(t *testing.T) {
	t.Parallel()

	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		// Advertise more bytes than are sent so the body read fails.
		w.Header().Set("Content-Length", "1024")
		_, _ = w.Write([]byte("case_month\n"))
	})

	_, err := c.FetchPage(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Equal(t, 3, calls, "payload failures consume the same retry budget as transport failures")
}

func TestParseCaseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2021-03", "2021-03-01", true},
		{"2021-03-15", "2021-03-15", true},
		{"2021-03-15T00:00:00", "2021-03-15", true},
		{" 2021-03 ", "2021-03-01", true},
		{"", "", false},
		{"not-a-date", "", false},
		{"03/2021", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCaseDate(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got.Format("2006-01-02"), "input %q", tt.in)
		}
	}
}
