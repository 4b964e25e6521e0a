package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/internal/localcache"
	"github.com/ambefarm/beantracker/pkg/models"
)

// Gateway mediates every order read and write between the client and the
// remote store. When the remote store is unreachable it degrades, one-shot,
// to the local fallback cache: no retries, no write queue, and no
// reconciliation when the store comes back.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	cache      *localcache.Cache
	logger     *logrus.Logger
}

func NewGateway(baseURL string, cache *localcache.Cache, logger *logrus.Logger) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}
}

// Save persists the order to the remote store. On any network failure or
// non-2xx response the order is appended to the local cache instead and the
// remote failure is swallowed: the caller cannot tell a remote save from a
// local-only one. Entries that only ever reached the cache are never
// replayed to the remote store.
func (g *Gateway) Save(order *models.SaleOrder) error {
	if err := g.saveRemote(order); err != nil {
		g.logger.WithError(err).WithField("order_id", order.ID).Warn("Remote store unreachable, saving order to local cache")
		return g.cache.Append(*order)
	}
	g.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"total_price": order.TotalPrice,
	}).Info("Order saved to remote store")
	return nil
}

func (g *Gateway) saveRemote(order *models.SaleOrder) error {
	jsonData, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.baseURL+"/api/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send order to remote store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("remote store returned error status: %d", resp.StatusCode)
	}
	return nil
}

// List fetches every order from the remote store, mapping each record from
// the server's field naming onto the canonical shape. On any failure it
// returns the local cache contents instead: insertion order, no sort, and
// no merge with whatever the remote store holds.
//
// When served remotely the list arrives ordered by sale date descending,
// then creation time descending.
func (g *Gateway) List() []models.SaleOrder {
	orders, err := g.listRemote()
	if err != nil {
		g.logger.WithError(err).Warn("Remote store unreachable, listing orders from local cache")
		return g.cache.ReadAll()
	}
	g.logger.WithField("count", len(orders)).Info("Retrieved orders from remote store")
	return orders
}

func (g *Gateway) listRemote() ([]models.SaleOrder, error) {
	resp, err := g.httpClient.Get(g.baseURL + "/api/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders from remote store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote store returned error status: %d", resp.StatusCode)
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode remote store response: %w", err)
	}

	orders := make([]models.SaleOrder, 0, len(records))
	for _, rec := range records {
		orders = append(orders, orderFromRecord(rec))
	}
	return orders, nil
}

// DeleteOne requests deletion of a single order from the remote store. A
// failure is returned as-is; callers re-list to observe the effect either
// way.
func (g *Gateway) DeleteOne(id string) error {
	req, err := http.NewRequest(http.MethodDelete, g.baseURL+"/api/orders/"+id, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete order from remote store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote store returned error status: %d", resp.StatusCode)
	}
	g.logger.WithField("order_id", id).Info("Order deleted from remote store")
	return nil
}

// ClearAll wipes the remote store and then clears the local cache. The
// cache is cleared unconditionally, whether or not the remote wipe
// succeeded.
func (g *Gateway) ClearAll() error {
	req, err := http.NewRequest(http.MethodDelete, g.baseURL+"/api/orders", nil)
	if err == nil {
		resp, doErr := g.httpClient.Do(req)
		if doErr != nil {
			g.logger.WithError(doErr).Warn("Failed to clear remote store")
		} else {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				g.logger.WithField("status", resp.StatusCode).Warn("Remote store refused to clear")
			} else {
				g.logger.Info("Remote store cleared")
			}
		}
	}
	return g.cache.Clear()
}

// Health reports the remote store's connection state: "connected" or
// "connecting" as answered by the store, or "offline" when the health
// endpoint itself cannot be reached.
func (g *Gateway) Health() string {
	resp, err := g.httpClient.Get(g.baseURL + "/health")
	if err != nil {
		return "offline"
	}
	defer resp.Body.Close()

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.Status == "" {
		return "offline"
	}
	return health.Status
}
