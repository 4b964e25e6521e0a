package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/ambefarm/beantracker/internal/insight"
	"github.com/ambefarm/beantracker/internal/localcache"
	"github.com/ambefarm/beantracker/internal/pricing"
	"github.com/ambefarm/beantracker/internal/report"
	"github.com/ambefarm/beantracker/internal/sync"
	"github.com/ambefarm/beantracker/internal/validation"
	"github.com/ambefarm/beantracker/pkg/models"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "warn"))
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	apiURL := getEnv("BEANTRACKER_API_URL", "http://localhost:3001")
	cachePath := getEnv("BEANTRACKER_CACHE", defaultCachePath())

	cache := localcache.New(cachePath, logger)
	gateway := sync.NewGateway(apiURL, cache, logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "add":
		runAdd(gateway, os.Args[2:])
	case "report":
		runReport(gateway, os.Args[2:])
	case "dashboard":
		runDashboard(gateway)
	case "insight":
		runInsight(gateway, logger)
	case "delete":
		runDelete(gateway, os.Args[2:])
	case "reset":
		runReset(gateway, os.Args[2:])
	case "status":
		fmt.Printf("remote store: %s\n", gateway.Health())
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `beantracker - produce sales tracking

Usage:
  beantracker add -customer NAME -product CROP -area AREA -weight VARIANT -qty N [options]
  beantracker report [-date YYYY-MM-DD] [-area A] [-product P] [-status S] [-search TERM]
  beantracker dashboard
  beantracker insight
  beantracker delete ORDER_ID
  beantracker reset -yes
  beantracker status

Environment:
  BEANTRACKER_API_URL   remote store base URL (default http://localhost:3001)
  BEANTRACKER_CACHE     offline fallback cache file
  INSIGHT_URL           market analysis endpoint
  INSIGHT_API_KEY       market analysis credential
`)
}

func runAdd(gateway *sync.Gateway, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	customer := fs.String("customer", "", "customer name (required)")
	phone := fs.String("phone", "", "customer phone")
	product := fs.String("product", "", "crop variety: Papadi, Tuver, Val or Choli")
	area := fs.String("area", "", "market area: Surat, Jahangirpura, Adajan, Pal or Vesu")
	weight := fs.String("weight", "", "package variant: 250g, 500g, 1kg or 5kg")
	date := fs.String("date", "", "sale date YYYY-MM-DD (default today)")
	qty := fs.Int("qty", 0, "number of packages")
	price := fs.Float64("price", 0, "price per package (default from the standing rate card)")
	status := fs.String("status", "Paid", "payment status: Paid or Pending")
	notes := fs.String("notes", "", "free-form notes")
	fs.Parse(args)

	unitPrice := *price
	if unitPrice == 0 {
		if p, ok := pricing.UnitPrice(models.Product(*product), models.Weight(*weight)); ok {
			unitPrice = p
		}
	}

	order, err := validation.BuildOrder(validation.Input{
		CustomerName:  *customer,
		CustomerPhone: *phone,
		Product:       *product,
		Area:          *area,
		Weight:        *weight,
		Date:          *date,
		Quantity:      *qty,
		PricePerUnit:  unitPrice,
		PaymentStatus: *status,
		Notes:         *notes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := gateway.Save(order); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Recorded: %d × %s %s for %s in %s — total ₹%.2f (%s)\n",
		order.Quantity, order.Weight, order.Product, order.CustomerName, order.Area,
		order.TotalPrice, order.PaymentStatus)
}

func runReport(gateway *sync.Gateway, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	date := fs.String("date", "", "exact sale date YYYY-MM-DD")
	area := fs.String("area", "", "exact market area")
	product := fs.String("product", "", "exact crop variety")
	status := fs.String("status", "", "payment status")
	search := fs.String("search", "", "substring of customer name or notes")
	fs.Parse(args)

	orders := report.Filter(gateway.List(), report.Query{
		Date:          *date,
		Area:          models.Area(*area),
		Product:       models.Product(*product),
		PaymentStatus: models.PaymentStatus(*status),
		Search:        *search,
	})

	if len(orders) == 0 {
		fmt.Println("No orders match the given filters.")
		return
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"Date", "Customer", "Product", "Area", "Weight", "Qty", "Total", "Status"})
	for _, o := range orders {
		table.Append([]string{
			o.Date,
			o.CustomerName,
			string(o.Product),
			string(o.Area),
			string(o.Weight),
			fmt.Sprintf("%d", o.Quantity),
			fmt.Sprintf("₹%.2f", o.TotalPrice),
			string(o.PaymentStatus),
		})
	}
	table.Render()

	qty, revenue := report.Totals(orders)
	fmt.Printf("\n%d orders, %d packages, ₹%.2f total\n", len(orders), qty, revenue)
}

func runDashboard(gateway *sync.Gateway) {
	orders := gateway.List()
	m := report.Summarize(orders)

	fmt.Printf("Total sales:      ₹%.2f\n", m.TotalSales)
	fmt.Printf("Paid:             ₹%.2f\n", m.PaidAmount)
	fmt.Printf("Pending:          ₹%.2f\n", m.PendingAmount)
	fmt.Printf("Packages sold:    %d\n", m.TotalPackages)
	fmt.Printf("Unique customers: %d\n", m.UniqueCustomers)

	trend := report.RevenueTrend(orders, 10)
	if len(trend) > 0 {
		fmt.Println("\nRevenue trend (last 10 sale days):")
		table := tablewriter.NewTable(os.Stdout)
		table.Header([]string{"Date", "Revenue"})
		for _, p := range trend {
			table.Append([]string{p.Date, fmt.Sprintf("₹%.2f", p.Revenue)})
		}
		table.Render()
	}

	byProduct := report.RevenueByProduct(orders)
	if len(byProduct) > 0 {
		fmt.Println("\nRevenue by crop:")
		table := tablewriter.NewTable(os.Stdout)
		table.Header([]string{"Crop", "Revenue"})
		for _, p := range byProduct {
			table.Append([]string{string(p.Product), fmt.Sprintf("₹%.2f", p.Revenue)})
		}
		table.Render()
	}
}

func runInsight(gateway *sync.Gateway, logger *logrus.Logger) {
	client := insight.NewClient(getEnv("INSIGHT_URL", ""), getEnv("INSIGHT_API_KEY", ""), logger)
	fmt.Println(client.SalesInsight(gateway.List()))
}

func runDelete(gateway *sync.Gateway, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: beantracker delete ORDER_ID")
		os.Exit(2)
	}
	if err := gateway.DeleteOne(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	fmt.Println("Delete requested; run 'beantracker report' to confirm.")
}

func runReset(gateway *sync.Gateway, args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "confirm wiping every order, remote and local")
	fs.Parse(args)

	if !*yes {
		fmt.Fprintln(os.Stderr, "reset wipes every order remotely and locally; pass -yes to confirm")
		os.Exit(2)
	}
	if err := gateway.ClearAll(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("All orders cleared.")
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "beantracker-orders.json"
	}
	return filepath.Join(home, ".beantracker", "orders.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
