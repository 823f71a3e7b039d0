// Package photocheck decides whether an uploaded photo is authentic enough to
// be shown on a profile.
package photocheck

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Verdict is a validator's opinion on one photo.
type Verdict struct {
	Approved bool   `json:"isApproved"`
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
}

// Validator inspects a JPEG-encoded photo.
type Validator interface {
	Validate(ctx context.Context, jpeg []byte) (Verdict, error)
}

const autoFeedback = "Foto aceptada (validación automática)"

// AutoApprove accepts every photo with a neutral score.
type AutoApprove struct{}

func (AutoApprove) Validate(context.Context, []byte) (Verdict, error) {
	return Verdict{Approved: true, Feedback: autoFeedback, Score: 50}, nil
}

// Remote asks an HTTP endpoint for a verdict.
//
// Request:  POST {"image": "<base64 jpeg>", "mimeType": "image/jpeg"}
// Response: {"isApproved": bool, "feedback": string, "score": number}
type Remote struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewRemote creates a validator calling url. At most rps requests per second
// are sent; callers above that wait on their context.
func NewRemote(url string, timeout time.Duration, rps float64) *Remote {
	if rps <= 0 {
		rps = 5
	}
	return &Remote{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type remoteRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
}

type remoteResponse struct {
	Approved *bool   `json:"isApproved"`
	Feedback string  `json:"feedback"`
	Score    float64 `json:"score"`
}

func (r *Remote) Validate(ctx context.Context, jpeg []byte) (Verdict, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Verdict{}, err
	}

	body, err := json.Marshal(remoteRequest{
		Image:    base64.StdEncoding.EncodeToString(jpeg),
		MimeType: "image/jpeg",
	})
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("photo validator request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Verdict{}, fmt.Errorf("photo validator returned %s", resp.Status)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("decode photo verdict: %w", err)
	}

	v := Verdict{
		Approved: out.Approved != nil && *out.Approved,
		Feedback: out.Feedback,
		Score:    clampFloat(out.Score),
	}
	if v.Feedback == "" {
		v.Feedback = "No se pudo validar la imagen"
	}
	return v, nil
}

type fallback struct {
	next Validator
	log  *slog.Logger
}

// WithFallback auto-approves whenever next fails, so an unreachable
// validator never blocks a signup.
func WithFallback(next Validator, log *slog.Logger) Validator {
	if log == nil {
		log = slog.Default()
	}
	return &fallback{next: next, log: log}
}

func (f *fallback) Validate(ctx context.Context, jpeg []byte) (Verdict, error) {
	v, err := f.next.Validate(ctx, jpeg)
	if err != nil {
		f.log.Warn("photo validation failed, auto-approving", "err", err)
		return AutoApprove{}.Validate(ctx, jpeg)
	}
	v.Score = clamp(v.Score)
	return v, nil
}

// clampFloat bounds a remote score before converting it, so out-of-range
// floats never reach the int conversion. NaN counts as 0.
func clampFloat(score float64) int {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 100:
		return 100
	}
	return int(score)
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
