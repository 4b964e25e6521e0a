package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/internal/events"
	"github.com/ambefarm/beantracker/internal/stream"
	"github.com/ambefarm/beantracker/pkg/models"
)

// OrderAPI is the remote order store: a thin CRUD surface over the
// bean_sales table. It starts serving before the database connection is
// established; data endpoints answer 503 until the background connect loop
// succeeds.
type OrderAPI struct {
	mu       sync.RWMutex
	db       *sql.DB
	logger   *logrus.Logger
	producer *events.Producer
	hub      *stream.Hub
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "beantracker")
	dbPassword := getEnv("DB_PASSWORD", "beantracker")
	dbName := getEnv("DB_NAME", "beansales")

	kafkaBrokers := getEnv("KAFKA_BROKERS", "")
	port := getEnv("ORDER_API_PORT", "3001")

	api := &OrderAPI{
		logger: logger,
		hub:    stream.NewHub(logger),
	}
	go api.hub.Run()

	if kafkaBrokers != "" {
		producer, err := events.NewProducer(kafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		api.producer = producer
	} else {
		logger.Info("KAFKA_BROKERS not configured - sale events disabled")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)
	go api.connectLoop(dsn)

	router := mux.NewRouter()
	router.HandleFunc("/health", api.HealthCheck).Methods("GET")
	router.HandleFunc("/api/orders", api.CreateOrder).Methods("POST")
	router.HandleFunc("/api/orders", api.ListOrders).Methods("GET")
	router.HandleFunc("/api/orders", api.ClearOrders).Methods("DELETE")
	router.HandleFunc("/api/orders/{id}", api.DeleteOrder).Methods("DELETE")
	router.HandleFunc("/ws", api.hub.HandleWebSocket)

	router.Use(loggingMiddleware(logger))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting order API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

// connectLoop keeps retrying the database until it answers, then installs
// the pool. Requests arriving before that see 503.
func (a *OrderAPI) connectLoop(dsn string) {
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
		}
		if err != nil {
			a.logger.WithError(err).Warn("Database not ready, retrying in 5s")
			if db != nil {
				db.Close()
			}
			time.Sleep(5 * time.Second)
			continue
		}
		if err := createTables(db); err != nil {
			a.logger.WithError(err).Error("Failed to create tables, retrying in 5s")
			db.Close()
			time.Sleep(5 * time.Second)
			continue
		}
		a.mu.Lock()
		a.db = db
		a.mu.Unlock()
		a.logger.Info("Database connection established")
		return
	}
}

func (a *OrderAPI) pool() *sql.DB {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db
}

// saleRecord is the wire shape of one stored row. Field names follow the
// store's column casing; clients map them onto the canonical order shape.
type saleRecord struct {
	ID            string  `json:"Id"`
	Product       string  `json:"Product"`
	SaleDate      string  `json:"SaleDate"`
	CustomerName  string  `json:"CustomerName"`
	CustomerPhone string  `json:"CustomerPhone,omitempty"`
	Area          string  `json:"Area"`
	Weight        string  `json:"Weight"`
	Quantity      int     `json:"Quantity"`
	TotalPackages int     `json:"TotalPackages"`
	TotalPrice    float64 `json:"TotalPrice"`
	PaymentStatus string  `json:"PaymentStatus"`
	Notes         string  `json:"Notes,omitempty"`
	CreatedAt     string  `json:"CreatedAt"`
}

func (a *OrderAPI) CreateOrder(w http.ResponseWriter, r *http.Request) {
	db := a.pool()
	if db == nil {
		a.respondWithError(w, http.StatusServiceUnavailable, "DB Connecting...")
		return
	}

	var order models.SaleOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		a.logger.WithError(err).Error("Failed to decode order request")
		a.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt == 0 {
		order.CreatedAt = time.Now().UnixMilli()
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentPaid
	}

	query := `
		INSERT INTO bean_sales (id, product, sale_date, customer_name, customer_phone, area, weight, quantity, total_packages, total_price, payment_status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := db.Exec(query, order.ID, string(order.Product), order.Date, order.CustomerName,
		order.CustomerPhone, string(order.Area), string(order.Weight), order.Quantity,
		order.Quantity, order.TotalPrice, string(order.PaymentStatus), order.Notes,
		time.UnixMilli(order.CreatedAt).UTC())
	if err != nil {
		a.logger.WithError(err).Error("Failed to save order")
		a.respondWithError(w, http.StatusInternalServerError, "Failed to save order")
		return
	}

	a.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"product":     order.Product,
		"area":        order.Area,
		"total_price": order.TotalPrice,
	}).Info("Order created successfully")

	if a.producer != nil {
		if err := a.producer.PublishSaleRecorded(&order); err != nil {
			a.logger.WithError(err).Error("Failed to publish sale recorded event")
			// Best effort only; the order is already persisted.
		}
	}
	a.hub.Broadcast("sale_recorded", order)

	a.respondWithJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (a *OrderAPI) ListOrders(w http.ResponseWriter, r *http.Request) {
	db := a.pool()
	if db == nil {
		a.respondWithError(w, http.StatusServiceUnavailable, "DB Connecting...")
		return
	}

	query := `
		SELECT id, product, sale_date, customer_name, customer_phone, area, weight, quantity, total_packages, total_price, payment_status, notes, created_at
		FROM bean_sales ORDER BY sale_date DESC, created_at DESC
	`
	rows, err := db.Query(query)
	if err != nil {
		a.logger.WithError(err).Error("Failed to query orders")
		a.respondWithError(w, http.StatusInternalServerError, "Failed to query orders")
		return
	}
	defer rows.Close()

	records := []saleRecord{}
	for rows.Next() {
		var rec saleRecord
		var saleDate, createdAt time.Time
		var phone, notes sql.NullString
		err := rows.Scan(&rec.ID, &rec.Product, &saleDate, &rec.CustomerName, &phone,
			&rec.Area, &rec.Weight, &rec.Quantity, &rec.TotalPackages, &rec.TotalPrice,
			&rec.PaymentStatus, &notes, &createdAt)
		if err != nil {
			a.logger.WithError(err).Error("Failed to scan order row")
			a.respondWithError(w, http.StatusInternalServerError, "Failed to read orders")
			return
		}
		rec.SaleDate = saleDate.UTC().Format(time.RFC3339)
		rec.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		rec.CustomerPhone = phone.String
		rec.Notes = notes.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		a.logger.WithError(err).Error("Failed to iterate order rows")
		a.respondWithError(w, http.StatusInternalServerError, "Failed to read orders")
		return
	}

	a.logger.WithField("count", len(records)).Info("Retrieved orders from database")
	a.respondWithJSON(w, http.StatusOK, records)
}

func (a *OrderAPI) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	db := a.pool()
	if db == nil {
		a.respondWithError(w, http.StatusServiceUnavailable, "DB Connecting...")
		return
	}

	orderID := mux.Vars(r)["id"]
	if _, err := db.Exec(`DELETE FROM bean_sales WHERE id = $1`, orderID); err != nil {
		a.logger.WithError(err).Error("Failed to delete order")
		a.respondWithError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	a.logger.WithField("order_id", orderID).Info("Order deleted")

	if a.producer != nil {
		if err := a.producer.PublishSaleDeleted(orderID); err != nil {
			a.logger.WithError(err).Error("Failed to publish sale deleted event")
		}
	}
	a.hub.Broadcast("sale_deleted", map[string]string{"id": orderID})

	a.respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *OrderAPI) ClearOrders(w http.ResponseWriter, r *http.Request) {
	db := a.pool()
	if db == nil {
		a.respondWithError(w, http.StatusServiceUnavailable, "DB Connecting...")
		return
	}

	if _, err := db.Exec(`DELETE FROM bean_sales`); err != nil {
		a.logger.WithError(err).Error("Failed to clear orders")
		a.respondWithError(w, http.StatusInternalServerError, "Failed to clear orders")
		return
	}

	a.logger.Info("All orders cleared")
	a.hub.Broadcast("store_reset", nil)

	a.respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *OrderAPI) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "connecting"
	if db := a.pool(); db != nil && db.Ping() == nil {
		status = "connected"
	}
	a.respondWithJSON(w, http.StatusOK, map[string]string{"status": status})
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bean_sales (
			id VARCHAR(64) PRIMARY KEY,
			product VARCHAR(50) NOT NULL,
			sale_date DATE NOT NULL,
			customer_name VARCHAR(200) NOT NULL,
			customer_phone VARCHAR(20),
			area VARCHAR(100) NOT NULL,
			weight VARCHAR(20) NOT NULL,
			quantity INTEGER NOT NULL,
			total_packages INTEGER NOT NULL,
			total_price DECIMAL(18,2) NOT NULL,
			payment_status VARCHAR(20) NOT NULL DEFAULT 'Paid',
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bean_sales_sale_date ON bean_sales(sale_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bean_sales_area ON bean_sales(area)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (a *OrderAPI) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (a *OrderAPI) respondWithError(w http.ResponseWriter, code int, message string) {
	a.respondWithJSON(w, code, map[string]any{
		"success": false,
		"error":   message,
	})
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Info("Request received")

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
