package webhook

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriaid/agriaid/core"
)

type captureHandler struct {
	msgs []core.InboundMessage
	err  error
}

func (c *captureHandler) Handle(msg core.InboundMessage) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func postSMS(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/receive-sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestReceiveSMS_Accepted(t *testing.T) {
	handler := &captureHandler{}
	stamp := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	srv := NewServer(handler, func(o *Options) {
		o.Now = func() time.Time { return stamp }
	})

	w := postSMS(t, srv.Routes(), url.Values{
		"from": {"0712345678"},
		"text": {"will it rain this week?"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"received"}`, w.Body.String())
	require.Len(t, handler.msgs, 1)
	assert.Equal(t, "+254712345678", handler.msgs[0].FarmerID, "local numbers are normalized")
	assert.Equal(t, "will it rain this week?", handler.msgs[0].Text)
	assert.Equal(t, stamp, handler.msgs[0].ReceivedAt)
}

func TestReceiveSMS_MissingFields(t *testing.T) {
	srv := NewServer(&captureHandler{})
	h := srv.Routes()

	w := postSMS(t, h, url.Values{"text": {"no sender"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postSMS(t, h, url.Values{"from": {"+254712345678"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveSMS_QueueFull(t *testing.T) {
	srv := NewServer(&captureHandler{err: errors.New("farmer message queue full")})

	w := postSMS(t, srv.Routes(), url.Values{
		"from": {"+254712345678"},
		"text": {"hello"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	srv := NewServer(&captureHandler{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
