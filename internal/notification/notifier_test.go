package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-enginev1/internal/model"
)

type stubNotifier struct {
	sent []Alert
	err  error
}

func (s *stubNotifier) Send(ctx context.Context, alert Alert) error {
	s.sent = append(s.sent, alert)
	return s.err
}

func TestPlanPlaced_AlertContent(t *testing.T) {
	plan := model.Plan{
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Side:     model.SideBuy,
		Price:    100.05,
		Quantity: 0.499,
	}
	alert := PlanPlaced(plan, "PAPER-1")

	assert.Equal(t, AlertInfo, alert.Level)
	assert.Contains(t, alert.Title, "BTCUSDT")
	assert.Contains(t, alert.Message, "PAPER-1")
	assert.Contains(t, alert.Message, "1h")
}

func TestPlanDiscarded_AlertContent(t *testing.T) {
	plan := model.Plan{
		Symbol:   "ETHUSDT",
		Interval: "4h",
		Side:     model.SideSell,
		Price:    2000,
	}
	alert := PlanDiscarded(plan, "plan older than max age")

	assert.Equal(t, AlertWarning, alert.Level)
	assert.Contains(t, alert.Message, "plan older than max age")
}

func TestMulti_AllBackendsGetAlert(t *testing.T) {
	a := &stubNotifier{}
	b := &stubNotifier{err: errors.New("telegram down")}
	c := &stubNotifier{}

	err := Multi{a, b, c}.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"})

	require.Error(t, err)
	assert.Equal(t, "telegram down", err.Error())
	assert.Len(t, a.sent, 1)
	assert.Len(t, b.sent, 1)
	assert.Len(t, c.sent, 1)
}

func TestMulti_FirstErrorWins(t *testing.T) {
	first := errors.New("first")
	m := Multi{&stubNotifier{err: first}, &stubNotifier{err: errors.New("second")}}

	err := m.Send(context.Background(), Alert{})
	require.ErrorIs(t, err, first)
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{
		Level:   AlertWarning,
		Title:   "Plan discarded: SELL ETHUSDT",
		Message: "price drifted",
	})
	require.NoError(t, err)

	assert.Equal(t, "WARNING", got["level"])
	assert.Equal(t, "price drifted", got["message"])
	assert.NotEmpty(t, got["ts"])
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
