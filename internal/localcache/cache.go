package localcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/pkg/models"
)

// Cache is the durable shadow copy of the order list used when the remote
// store cannot be reached. The whole list lives as one JSON document at a
// fixed path, in the canonical order shape.
//
// Append is a read-modify-write with no locking; last writer wins. The
// client runs a single active writer at a time, which is the only reason
// this is acceptable.
type Cache struct {
	path   string
	logger *logrus.Logger
}

func New(path string, logger *logrus.Logger) *Cache {
	return &Cache{path: path, logger: logger}
}

// ReadAll returns the cached order list in insertion order. A missing file
// or malformed content both read as an empty list, never an error.
func (c *Cache) ReadAll() []models.SaleOrder {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var orders []models.SaleOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		c.logger.WithError(err).WithField("path", c.path).Warn("Discarding malformed fallback cache")
		return nil
	}
	return orders
}

// Append adds one order to the cached list and writes the list back.
func (c *Cache) Append(order models.SaleOrder) error {
	orders := append(c.ReadAll(), order)
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to encode fallback cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write fallback cache: %w", err)
	}
	return nil
}

// Clear removes the cache file entirely.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear fallback cache: %w", err)
	}
	return nil
}
