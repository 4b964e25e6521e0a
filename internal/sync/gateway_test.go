package sync

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/internal/localcache"
	"github.com/ambefarm/beantracker/pkg/models"
)

// fakeStore implements the remote store contract in memory, answering GET
// with the store's column casing and stringly-typed decimals, the way the
// production store does.
type fakeStore struct {
	orders []models.SaleOrder
}

func (f *fakeStore) handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "connected"})
	}).Methods("GET")
	router.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		var order models.SaleOrder
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.orders = append(f.orders, order)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}).Methods("POST")
	router.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		records := make([]map[string]any, 0, len(f.orders))
		for _, o := range f.orders {
			records = append(records, map[string]any{
				"Id":            o.ID,
				"Product":       string(o.Product),
				"SaleDate":      o.Date + "T00:00:00Z",
				"CustomerName":  o.CustomerName,
				"CustomerPhone": o.CustomerPhone,
				"Area":          string(o.Area),
				"Weight":        string(o.Weight),
				"Quantity":      o.Quantity,
				"TotalPackages": o.TotalPackages,
				"TotalPrice":    fmt.Sprintf("%.2f", o.TotalPrice),
				"PaymentStatus": string(o.PaymentStatus),
				"Notes":         o.Notes,
				"CreatedAt":     time.UnixMilli(o.CreatedAt).UTC().Format(time.RFC3339),
			})
		}
		json.NewEncoder(w).Encode(records)
	}).Methods("GET")
	router.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		f.orders = nil
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}).Methods("DELETE")
	router.HandleFunc("/api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		kept := f.orders[:0]
		for _, o := range f.orders {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		f.orders = kept
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}).Methods("DELETE")
	return router
}

func newTestGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	cache := localcache.New(filepath.Join(t.TempDir(), "orders.json"), logger)
	return NewGateway(baseURL, cache, logger)
}

func testOrder() *models.SaleOrder {
	return &models.SaleOrder{
		ID:            "ord-1",
		Product:       models.ProductPapadi,
		Date:          "2024-01-01",
		CustomerName:  "Rameshbhai",
		CustomerPhone: "9876543210",
		Area:          models.AreaSurat,
		Weight:        models.Weight1KG,
		Quantity:      3,
		TotalPackages: 3,
		TotalPrice:    480,
		PaymentStatus: models.PaymentPending,
		Notes:         "repeat buyer",
		CreatedAt:     time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestSaveThenListRemote(t *testing.T) {
	store := &fakeStore{}
	srv := httptest.NewServer(store.handler())
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	order := testOrder()
	if err := g.Save(order); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected order in remote store, found %d", len(store.orders))
	}

	orders := g.List()
	if len(orders) != 1 {
		t.Fatalf("List returned %d orders, want 1", len(orders))
	}
	got := orders[0]

	// Everything must survive the trip through the store's field naming.
	if got.ID != order.ID {
		t.Errorf("ID = %q, want %q", got.ID, order.ID)
	}
	if got.Product != order.Product || got.Area != order.Area || got.Weight != order.Weight {
		t.Errorf("enum fields changed: got %+v", got)
	}
	if got.Date != "2024-01-01" {
		t.Errorf("Date = %q, want 2024-01-01 (timestamp not trimmed)", got.Date)
	}
	if got.CustomerName != order.CustomerName || got.CustomerPhone != order.CustomerPhone {
		t.Errorf("customer fields changed: got %+v", got)
	}
	if got.Quantity != 3 || got.TotalPackages != 3 {
		t.Errorf("Quantity/TotalPackages = %d/%d, want 3/3", got.Quantity, got.TotalPackages)
	}
	if got.TotalPrice != 480 {
		t.Errorf("TotalPrice = %v, want 480 (string decimal not coerced)", got.TotalPrice)
	}
	if got.PaymentStatus != models.PaymentPending {
		t.Errorf("PaymentStatus = %q, want Pending", got.PaymentStatus)
	}
	if got.Notes != order.Notes {
		t.Errorf("Notes = %q, want %q", got.Notes, order.Notes)
	}
	if got.CreatedAt != order.CreatedAt {
		t.Errorf("CreatedAt = %d, want %d (timestamp not converted to millis)", got.CreatedAt, order.CreatedAt)
	}
}

func TestSaveFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // unreachable from the start

	g := newTestGateway(t, srv.URL)
	order := testOrder()
	if err := g.Save(order); err != nil {
		t.Fatalf("Save with remote down must not fail: %v", err)
	}

	// The order must come back from the cache on a subsequent list even
	// though no remote record exists.
	orders := g.List()
	if len(orders) != 1 {
		t.Fatalf("List returned %d orders, want 1 from cache", len(orders))
	}
	if orders[0].ID != order.ID || orders[0].TotalPrice != 480 {
		t.Errorf("cached order mangled: %+v", orders[0])
	}
}

func TestSaveFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"DB Connecting..."}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	if err := g.Save(testOrder()); err != nil {
		t.Fatalf("Save against a 503 store must not fail: %v", err)
	}
	if got := g.cache.ReadAll(); len(got) != 1 {
		t.Errorf("expected order in cache after 503, found %d", len(got))
	}
}

func TestListFallsBackOnRemoteFailure(t *testing.T) {
	store := &fakeStore{}
	srv := httptest.NewServer(store.handler())

	g := newTestGateway(t, srv.URL)

	// Seed the cache while offline.
	srvDown := httptest.NewServer(nil)
	srvDown.Close()
	offline := NewGateway(srvDown.URL, g.cache, g.logger)
	if err := offline.Save(testOrder()); err != nil {
		t.Fatalf("offline Save: %v", err)
	}

	// Remote up: served remotely, cache ignored, no merge.
	if got := g.List(); len(got) != 0 {
		t.Errorf("expected empty remote list (no merge with cache), got %d", len(got))
	}

	// Remote down: cache contents verbatim.
	srv.Close()
	got := g.List()
	if len(got) != 1 || got[0].ID != "ord-1" {
		t.Errorf("expected cached order after remote failure, got %+v", got)
	}
}

func TestClearAllClearsCacheRegardlessOfRemote(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // remote unreachable

	g := newTestGateway(t, srv.URL)
	if err := g.Save(testOrder()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := g.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if got := g.List(); len(got) != 0 {
		t.Errorf("expected empty list after ClearAll, got %d orders", len(got))
	}
}

func TestDeleteOne(t *testing.T) {
	store := &fakeStore{}
	srv := httptest.NewServer(store.handler())
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	if err := g.Save(testOrder()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := g.DeleteOne("ord-1"); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	if got := g.List(); len(got) != 0 {
		t.Errorf("expected order gone after delete, got %d", len(got))
	}
}

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	srv := httptest.NewServer(store.handler())

	g := newTestGateway(t, srv.URL)
	if got := g.Health(); got != "connected" {
		t.Errorf("Health = %q, want connected", got)
	}

	srv.Close()
	if got := g.Health(); got != "offline" {
		t.Errorf("Health with remote down = %q, want offline", got)
	}
}

func TestOrderFromRecordToleratesBothNamings(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
	}{
		{"server casing", map[string]any{
			"Id": "x", "Product": "Tuver", "SaleDate": "2024-02-01T00:00:00Z",
			"CustomerName": "Meena", "Area": "Adajan", "Weight": "500g",
			"Quantity": float64(2), "TotalPackages": float64(2), "TotalPrice": "190.00",
			"PaymentStatus": "Paid", "CreatedAt": "2024-02-01T08:00:00Z",
		}},
		{"canonical casing", map[string]any{
			"id": "x", "product": "Tuver", "date": "2024-02-01",
			"customerName": "Meena", "area": "Adajan", "weight": "500g",
			"quantity": float64(2), "totalPackages": float64(2), "totalPrice": float64(190),
			"paymentStatus": "Paid", "createdAt": float64(1706774400000),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderFromRecord(tt.rec)
			if got.ID != "x" || got.Product != models.ProductTuver || got.Area != models.AreaAdajan {
				t.Errorf("identity fields wrong: %+v", got)
			}
			if got.Date != "2024-02-01" {
				t.Errorf("Date = %q, want 2024-02-01", got.Date)
			}
			if got.Quantity != 2 || got.TotalPrice != 190 {
				t.Errorf("numeric fields wrong: qty=%d total=%v", got.Quantity, got.TotalPrice)
			}
			if got.CreatedAt == 0 {
				t.Error("CreatedAt not mapped")
			}
		})
	}
}

func TestOrderFromRecordDefaults(t *testing.T) {
	got := orderFromRecord(map[string]any{"Id": "x"})
	if got.CustomerName != "Customer" {
		t.Errorf("CustomerName default = %q, want Customer", got.CustomerName)
	}
	if got.PaymentStatus != models.PaymentPaid {
		t.Errorf("PaymentStatus default = %q, want Paid", got.PaymentStatus)
	}
}

func TestRoundTripSuratPapadi(t *testing.T) {
	store := &fakeStore{}
	srv := httptest.NewServer(store.handler())
	defer srv.Close()

	order := &models.SaleOrder{
		ID:            "rt-1",
		Product:       models.ProductPapadi,
		Date:          "2024-03-01",
		CustomerName:  "Kiran",
		Area:          models.AreaSurat,
		Weight:        models.Weight1KG,
		Quantity:      3,
		TotalPackages: 3,
		TotalPrice:    3 * 160,
		PaymentStatus: models.PaymentPaid,
		CreatedAt:     time.Now().UnixMilli() / 1000 * 1000, // RFC3339 trip drops sub-second precision
	}

	g := newTestGateway(t, srv.URL)
	if err := g.Save(order); err != nil {
		t.Fatalf("Save: %v", err)
	}

	orders := g.List()
	if len(orders) != 1 {
		t.Fatalf("List returned %d orders, want 1", len(orders))
	}
	got := orders[0]
	if got.TotalPrice != 480 {
		t.Errorf("TotalPrice = %v, want 480", got.TotalPrice)
	}
	want := *order
	if got != want {
		t.Errorf("round trip changed the order:\n got  %+v\n want %+v", got, want)
	}
}

func TestListTrimsLongDates(t *testing.T) {
	if got := asDate("2024-01-01T00:00:00.000Z"); got != "2024-01-01" {
		t.Errorf("asDate = %q, want 2024-01-01", got)
	}
	if got := asDate("2024-01-01"); got != "2024-01-01" {
		t.Errorf("asDate passthrough = %q, want 2024-01-01", got)
	}
}

func TestCoercions(t *testing.T) {
	if got := asFloat("480.50"); got != 480.5 {
		t.Errorf("asFloat(string) = %v, want 480.5", got)
	}
	if got := asInt(float64(3)); got != 3 {
		t.Errorf("asInt(float64) = %v, want 3", got)
	}
	if got := asInt("7"); got != 7 {
		t.Errorf("asInt(string) = %v, want 7", got)
	}
	if got := asEpochMillis("2024-01-01T09:30:00Z"); got != time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("asEpochMillis(RFC3339) = %v", got)
	}
	if !strings.HasPrefix(fmt.Sprint(asEpochMillis(float64(1704067200000))), "1704067200000") {
		t.Errorf("asEpochMillis(float64) = %v", asEpochMillis(float64(1704067200000)))
	}
}
