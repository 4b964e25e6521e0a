// Package insight talks to the external market-analysis service. The
// service is an opaque collaborator: the client sends a plain-text sales
// summary and relays whatever text comes back. It never surfaces a failure
// to the caller; every error path collapses to a fixed apology message.
package insight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/pkg/models"
)

const (
	apologyMessage = "The market analysis engine is temporarily resting. Please try again in a moment."
	noDataMessage  = "No sales data found. Start by entering your first bean crop transaction to get insights."
)

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(endpoint, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type insightRequest struct {
	Summary string `json:"summary"`
}

type insightResponse struct {
	Text string `json:"text"`
}

// SalesInsight submits the order list for analysis and returns the
// free-form reply. An empty list short-circuits to a fixed prompt to start
// recording sales; any failure returns the apology message.
func (c *Client) SalesInsight(orders []models.SaleOrder) string {
	if len(orders) == 0 {
		return noDataMessage
	}
	if c.endpoint == "" {
		c.logger.Warn("No analysis endpoint configured")
		return apologyMessage
	}

	body, err := json.Marshal(insightRequest{Summary: salesSummary(orders)})
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal analysis request")
		return apologyMessage
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		c.logger.WithError(err).Error("Failed to create analysis request")
		return apologyMessage
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Analysis service unreachable")
		return apologyMessage
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("Analysis service returned error status")
		return apologyMessage
	}

	var reply insightResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil || reply.Text == "" {
		c.logger.WithError(err).Warn("Failed to decode analysis response")
		return apologyMessage
	}

	c.logger.WithField("orders", len(orders)).Info("Received sales insight")
	return reply.Text
}

// salesSummary renders one line per order for the analysis prompt.
func salesSummary(orders []models.SaleOrder) string {
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("Date: %s, Crop: %s, Mandi/Area: %s, Variant: %s, Qty: %d, Revenue: ₹%.2f",
			o.Date, o.Product, o.Area, o.Weight, o.Quantity, o.TotalPrice))
	}
	return strings.Join(lines, "\n")
}
