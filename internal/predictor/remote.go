package predictor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type remoteRequest struct {
	Features []float64 `json:"features"`
}

type remoteResponse struct {
	Prediction *int    `json:"prediction"`
	Score      float64 `json:"score"`
}

// RemoteModel is a Classifier served by an HTTP model server. It POSTs
// {"features":[...]} to URL and expects {"prediction":0|1,"score":x}.
type RemoteModel struct {
	client *resty.Client
	url    string
}

// NewRemoteModel returns a RemoteModel with the given request timeout.
func NewRemoteModel(url string, timeout time.Duration) *RemoteModel {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &RemoteModel{client: client, url: url}
}

// Classify implements Classifier.
func (m *RemoteModel) Classify(ctx context.Context, x []float64) (Outcome, error) {
	var out remoteResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(remoteRequest{Features: x}).
		SetResult(&out).
		Post(m.url)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to connect to model server: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Outcome{}, fmt.Errorf("model server error: status %d", resp.StatusCode())
	}

	if out.Prediction == nil {
		return Outcome{}, fmt.Errorf("model server returned no prediction")
	}
	switch *out.Prediction {
	case 0, 1:
	default:
		return Outcome{}, fmt.Errorf("unexpected label %d", *out.Prediction)
	}
	return Outcome{Positive: *out.Prediction == 1, Score: out.Score}, nil
}
