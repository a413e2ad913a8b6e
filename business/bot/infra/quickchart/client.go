// Package quickchart renders price and supply history charts via the
// QuickChart API.
package quickchart

import (
	"context"
	"fmt"
	"time"

	botApp "github.com/sbswap/swappool/business/bot/app"
	poolDomain "github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/circuitbreaker"
	"github.com/sbswap/swappool/internal/httpclient"
	"github.com/sbswap/swappool/internal/logger"
	"github.com/sbswap/swappool/internal/ratelimit"
)

const gridColor = "#383838"

// Client renders charts through QuickChart's short-URL endpoint. Requests
// are rate limited and run through a circuit breaker.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[string]
	log     logger.LoggerInterface

	firstName  string
	secondName string
}

var _ botApp.ChartRenderer = (*Client)(nil)

// createRequest is the QuickChart short-URL request body.
type createRequest struct {
	Chart            map[string]any `json:"chart"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	DevicePixelRatio float64        `json:"devicePixelRatio"`
	BackgroundColor  string         `json:"backgroundColor"`
}

// createResponse is the QuickChart short-URL response body.
type createResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// NewClient creates a Client. endpoint is the QuickChart base URL; the two
// asset names label the datasets.
func NewClient(endpoint string, requestsPerMinute int, firstName, secondName string, log logger.LoggerInterface) (*Client, error) {
	http, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(endpoint),
		httpclient.WithProviderName("quickchart"),
		httpclient.WithRequestTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Client{
		http:       http,
		limiter:    ratelimit.New(requestsPerMinute),
		cb:         circuitbreaker.New[string](circuitbreaker.DefaultConfig("quickchart")),
		log:        log,
		firstName:  firstName,
		secondName: secondName,
	}, nil
}

// RenderCharts renders the price chart and the supply chart and returns
// their short URLs.
func (c *Client) RenderCharts(ctx context.Context, series []poolDomain.SeriesPoint) (string, string, error) {
	labels := make([]string, len(series))
	prices := make([]float64, len(series))
	suppliesA := make([]float64, len(series))
	suppliesB := make([]float64, len(series))
	for i, p := range series {
		labels[i] = time.Unix(p.Time, 0).Format("01-02")
		prices[i] = p.Price.InexactFloat64()
		suppliesA[i] = p.SupplyA.InexactFloat64()
		suppliesB[i] = p.SupplyB.InexactFloat64()
	}

	priceURL, err := c.create(ctx, lineChart(labels, []dataset{
		{label: fmt.Sprintf("%s to %s", c.firstName, c.secondName), color: "#fecd4c", data: prices},
	}))
	if err != nil {
		return "", "", err
	}

	supplyURL, err := c.create(ctx, lineChart(labels, []dataset{
		{label: fmt.Sprintf("%s supply", c.secondName), color: "#3b3db0", data: suppliesB},
		{label: fmt.Sprintf("%s supply", c.firstName), color: "#ff0000", data: suppliesA},
	}))
	if err != nil {
		return "", "", err
	}

	return priceURL, supplyURL, nil
}

func (c *Client) create(ctx context.Context, chart map[string]any) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithContext("quickchart"), apperror.WithCause(err))
	}

	url, err := c.cb.Execute(func() (string, error) {
		var result createResponse
		resp, err := c.http.NewRequest().
			SetBody(createRequest{
				Chart:            chart,
				Width:            500,
				Height:           300,
				DevicePixelRatio: 2.0,
				BackgroundColor:  "black",
			}).
			SetResult(&result).
			Post(ctx, "/chart/create")
		if err != nil {
			return "", err
		}
		if resp.IsError() || !result.Success || result.URL == "" {
			return "", fmt.Errorf("quickchart returned status %d: %s", resp.StatusCode, resp.String())
		}
		return result.URL, nil
	})
	if err != nil {
		return "", apperror.New(apperror.CodeChartRenderFailed,
			apperror.WithContext("create chart"), apperror.WithCause(err))
	}

	return url, nil
}

// dataset is one line on a chart.
type dataset struct {
	label string
	color string
	data  []float64
}

func lineChart(labels []string, datasets []dataset) map[string]any {
	sets := make([]map[string]any, len(datasets))
	for i, d := range datasets {
		sets[i] = map[string]any{
			"label":       d.label,
			"borderColor": d.color,
			"fill":        false,
			"data":        d.data,
		}
	}

	return map[string]any{
		"type": "line",
		"data": map[string]any{
			"labels":   labels,
			"datasets": sets,
		},
		"options": map[string]any{
			"legend": map[string]any{
				"labels": map[string]any{"fontColor": "white"},
			},
			"scales": map[string]any{
				"yAxes": []map[string]any{{
					"ticks": map[string]any{"fontColor": "white", "beginAtZero": true},
					"gridLines": map[string]any{
						"display":       true,
						"color":         gridColor,
						"zeroLineColor": gridColor,
						"lineWidth":     2,
					},
				}},
				"xAxes": []map[string]any{{
					"ticks": map[string]any{"fontColor": "white"},
				}},
			},
		},
	}
}
