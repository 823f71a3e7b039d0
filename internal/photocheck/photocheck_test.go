package photocheck_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/imperfect/internal/photocheck"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAutoApprove(t *testing.T) {
	v, err := photocheck.AutoApprove{}.Validate(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.Approved)
	assert.Equal(t, 50, v.Score)
	assert.NotEmpty(t, v.Feedback)
}

func TestRemote_Verdict(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"isApproved": false, "feedback": "filtro de belleza", "score": 140}`))
	}))
	defer srv.Close()

	v, err := photocheck.NewRemote(srv.URL, time.Second, 100).Validate(context.Background(), []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.Equal(t, "filtro de belleza", v.Feedback)
	assert.Equal(t, 100, v.Score)

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8}), got["image"])
	assert.Equal(t, "image/jpeg", got["mimeType"])
}

func TestRemote_MissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	v, err := photocheck.NewRemote(srv.URL, time.Second, 0).Validate(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, "No se pudo validar la imagen", v.Feedback)
}

func TestRemote_OutOfRangeScores(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"isApproved": true, "score": 1e300}`, 100},
		{`{"isApproved": true, "score": -1e300}`, 0},
		{`{"isApproved": true, "score": 73.9}`, 73},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v, err := photocheck.NewRemote(srv.URL, time.Second, 0).Validate(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Score)
		})
	}
}

func TestRemote_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := photocheck.NewRemote(srv.URL, time.Second, 0).Validate(context.Background(), nil)
	assert.Error(t, err)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer garbage.Close()

	_, err = photocheck.NewRemote(garbage.URL, time.Second, 0).Validate(context.Background(), nil)
	assert.Error(t, err)
}

type failing struct{}

func (failing) Validate(context.Context, []byte) (photocheck.Verdict, error) {
	return photocheck.Verdict{}, errors.New("unreachable")
}

type fixed struct{ v photocheck.Verdict }

func (f fixed) Validate(context.Context, []byte) (photocheck.Verdict, error) { return f.v, nil }

func TestWithFallback(t *testing.T) {
	ctx := context.Background()

	v, err := photocheck.WithFallback(failing{}, quiet).Validate(ctx, nil)
	require.NoError(t, err)
	assert.True(t, v.Approved)
	assert.Equal(t, 50, v.Score)

	v, err = photocheck.WithFallback(fixed{photocheck.Verdict{Approved: false, Score: -3}}, quiet).Validate(ctx, nil)
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.Equal(t, 0, v.Score)
}
