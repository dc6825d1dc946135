package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gammaResponse = `[{
	"id": "903193",
	"slug": "fed-decision-in-december",
	"title": "Fed decision in December?",
	"description": "This event resolves on the FOMC statement.",
	"icon": "https://example.com/fed.png",
	"closed": false,
	"startDate": "2024-11-01T12:00:00Z",
	"endDate": "2024-12-18T00:00:00Z",
	"volume": "1523000.5",
	"liquidity": 250000,
	"volume24hr": null,
	"volume1wk": "12000",
	"tags": [{"label": "Economy"}],
	"markets": [{
		"groupItemTitle": "25 bps decrease",
		"outcomePrices": "[\"0.82\", \"0.18\"]",
		"bestBid": "0.81",
		"bestAsk": 0.83,
		"lastTradePrice": 0.82,
		"closed": false,
		"volume": "900000"
	}, {
		"closed": true,
		"outcomePrices": ["1", "0"]
	}]
}]`

func TestPolymarketProviderProjection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "fed-decision-in-december", r.URL.Query().Get("slug"))
		assert.Equal(t, "MultiSourceEventBrowser/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(gammaResponse))
	}))
	defer server.Close()

	registry := NewProviderRegistry(NewPolymarketProvider(server.URL, time.Second))
	payload, ok := registry.Fetch(context.Background(), "polymarket", "fed-decision-in-december")
	require.True(t, ok)

	var event PolymarketEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "fed-decision-in-december", event.Slug)
	assert.Equal(t, "Fed decision in December?", event.Title)
	assert.InDelta(t, 1523000.5, event.Volume.Float(), 1e-9)
	assert.InDelta(t, 250000, event.Liquidity.Float(), 1e-9)
	assert.Zero(t, event.Volume24hr.Float())
	assert.InDelta(t, 12000, event.Volume1wk.Float(), 1e-9)
	assert.Zero(t, event.Volume1yr.Float())
	require.Len(t, event.Markets, 2)
	assert.Equal(t, "25 bps decrease", event.Markets[0].GroupItemTitle)
	assert.InDelta(t, 0.81, event.Markets[0].BestBid.Float(), 1e-9)

	yes, no, ok := event.Markets[0].OutcomePrices.Probabilities()
	require.True(t, ok)
	assert.InDelta(t, 0.82, yes, 1e-9)
	assert.InDelta(t, 0.18, no, 1e-9)
	assert.True(t, event.Markets[1].Closed)
	yes, no, ok = event.Markets[1].OutcomePrices.Probabilities()
	require.True(t, ok)
	assert.Equal(t, 1.0, yes)
	assert.Equal(t, 0.0, no)

	// 只保留投影字段
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.NotContains(t, raw, "tags")
	assert.NotContains(t, raw, "id")
}

func TestPolymarketProviderFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"empty array": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(gammaResponse))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			registry := NewProviderRegistry(NewPolymarketProvider(server.URL, 50*time.Millisecond))
			payload, ok := registry.Fetch(context.Background(), PolymarketName, "anything")
			assert.False(t, ok)
			assert.Nil(t, payload)

			_, err := NewPolymarketProvider(server.URL, 50*time.Millisecond).Fetch(context.Background(), "anything")
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestProviderRegistryUnknownSource(t *testing.T) {
	registry := NewProviderRegistry(NewPolymarketProvider("", time.Second), NewRSSProvider(time.Second))
	assert.Equal(t, []string{"polymarket", "rss"}, registry.Names())

	_, ok := registry.Lookup(" Polymarket ")
	assert.True(t, ok)

	payload, ok := registry.Fetch(context.Background(), "kalshi", "x")
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestNumberUnmarshal(t *testing.T) {
	var v struct {
		A, B, C, D, E Number
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A": 1.5, "B": "2.25", "C": null, "D": "n/a"}`), &v))
	assert.Equal(t, Number(1.5), v.A)
	assert.Equal(t, Number(2.25), v.B)
	assert.Zero(t, v.C)
	assert.Zero(t, v.D)
	assert.Zero(t, v.E)
}

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Central Bank Watch</title>
  <link>https://example.com/</link>
  <description>Rate decisions</description>
  <item><title>Rates held</title><link>https://example.com/1</link><pubDate>Wed, 18 Dec 2024 19:00:00 GMT</pubDate></item>
  <item><title>Minutes released</title><link>https://example.com/2</link></item>
</channel>
</rss>`

func TestOutcomePricesProbabilities(t *testing.T) {
	cases := []struct {
		name    string
		raw     OutcomePrices
		yes, no float64
		ok      bool
	}{
		{"pair", `["0.6", "0.4"]`, 0.6, 0.4, true},
		{"single value", `["0.75"]`, 0.75, 0, true},
		{"numbers", `[0.3, 0.7]`, 0.3, 0.7, true},
		{"empty array", `[]`, 0, 0, false},
		{"garbage", `garbage`, 0, 0, false},
		{"missing", ``, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			yes, no, ok := tc.raw.Probabilities()
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.yes, yes, 1e-9)
			assert.InDelta(t, tc.no, no, 1e-9)
		})
	}
}

func TestRSSProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer server.Close()

	payload, err := NewRSSProvider(time.Second).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	var snapshot FeedSnapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	assert.Equal(t, "Central Bank Watch", snapshot.Title)
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, "Rates held", snapshot.Items[0].Title)
	assert.Equal(t, "2024-12-18T19:00:00Z", snapshot.Items[0].Published)
	assert.Empty(t, snapshot.Items[1].Published)
}

func TestNormalizeFeedURL(t *testing.T) {
	t.Setenv("RSSHUB_INSTANCE_URL", "https://hub.example.com/")
	assert.Equal(t, "https://hub.example.com/telegram/channel/x", normalizeFeedURL("rsshub://telegram/channel/x"))
	assert.Equal(t, "https://example.com/feed", normalizeFeedURL("https://example.com/feed"))
}
