// Package e2e provides end-to-end tests for the inventory service.
// The suite starts PostgreSQL and NATS with testcontainers-go, wires the application exactly as
// cmd/inventory_service does (migrations, pool, JetStream stream, publisher) and drives the HTTP API
// served by httptest.Server. Every test starts from an empty products table.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/app"
	"github.com/abgdnv/inventory/internal/inventory/config"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	pnats "github.com/abgdnv/inventory/pkg/nats"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "INVENTORY_SVC_SKIP_E2E_TESTS"

const productsURL = "/products"

type InventoryE2ESuite struct {
	suite.Suite
	pgContainer   *postgres.PostgresContainer
	natsContainer *tcnats.NATSContainer
	resources     *app.Resources
	dbPool        *pgxpool.Pool
	js            jetstream.JetStream
	server        *httptest.Server
	httpClient    *http.Client
	logger        *slog.Logger
	ctx           context.Context
}

func TestInventoryServiceE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(InventoryE2ESuite))
}

// testConfig builds the service configuration for the started containers.
func testConfig(dbURL, natsURL string) *config.Config {
	var cfg config.Config
	cfg.HTTPServer.Port = 0
	cfg.HTTPServer.MaxHeaderBytes = 1 << 20
	cfg.HTTPServer.Timeout.Read = time.Minute
	cfg.HTTPServer.Timeout.Write = time.Minute
	cfg.HTTPServer.Timeout.Idle = time.Minute
	cfg.HTTPServer.Timeout.ReadHeader = time.Minute
	cfg.Store.Driver = config.DriverPostgres
	cfg.Database.URL = dbURL
	cfg.Database.Timeout = 30 * time.Second
	cfg.Database.Migrate = true
	cfg.NATS.Enabled = true
	cfg.NATS.Url = natsURL
	cfg.NATS.Timeout = 5 * time.Second
	cfg.NATS.Stream = "INVENTORY"
	return &cfg
}

func (s *InventoryE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("inventory"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")
	dbURL, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.natsContainer, err = tcnats.Run(s.ctx, "nats:2.11.6-alpine")
	require.NoError(s.T(), err, "Failed to run NATS container")
	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	cfg := testConfig(dbURL, natsURL)
	s.resources, err = app.SetupResources(s.ctx, cfg, s.logger)
	require.NoError(s.T(), err, "Failed to set up resources")

	s.dbPool, err = pgxpool.New(s.ctx, dbURL)
	require.NoError(s.T(), err)

	nc, err := pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err)
	s.js, err = pnats.NewJetStreamContext(nc)
	require.NoError(s.T(), err)

	deps := app.SetupDependencies(s.resources, cfg, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
	s.logger.Info("E2E test server started", "url", s.server.URL)
}

func (s *InventoryE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.resources != nil {
		s.resources.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	for _, c := range []testcontainers.Container{s.pgContainer, s.natsContainer} {
		if err := testcontainers.TerminateContainer(c); err != nil {
			s.logger.Warn("Failed to terminate container", "error", err)
		}
	}
}

func (s *InventoryE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate products table")
	stream, err := s.js.Stream(s.ctx, "INVENTORY")
	require.NoError(s.T(), err)
	require.NoError(s.T(), stream.Purge(s.ctx))
}

// --------------------------------------------------------------------------
// ------------------------------- Helpers ----------------------------------
// --------------------------------------------------------------------------

func (s *InventoryE2ESuite) doRequest(method, path string, payload any) (string, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+productsURL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		require.NoError(s.T(), resp.Body.Close())
	}()
	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return string(bytes.TrimSpace(bodyBytes)), resp.StatusCode
}

func (s *InventoryE2ESuite) addProduct(name string, quantity int32, price float64, category string) {
	s.T().Helper()
	body, code := s.doRequest(http.MethodPost, "/addProduct",
		service.ProductCreateDto{Name: name, Quantity: quantity, Price: price, Category: category})
	require.Equal(s.T(), http.StatusOK, code, body)
	require.Equal(s.T(), "Product added successfully", body)
}

func (s *InventoryE2ESuite) getProducts(path string) []service.ProductDto {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, path, nil)
	require.Equal(s.T(), http.StatusOK, code, body)
	var products []service.ProductDto
	require.NoError(s.T(), json.Unmarshal([]byte(body), &products))
	return products
}

func (s *InventoryE2ESuite) getProduct(path string) service.ProductDto {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, path, nil)
	require.Equal(s.T(), http.StatusOK, code, body)
	var product service.ProductDto
	require.NoError(s.T(), json.Unmarshal([]byte(body), &product))
	return product
}

func names(products []service.ProductDto) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

// --------------------------------------------------------------
// ---------------------- E2E test methods ----------------------
// --------------------------------------------------------------

func (s *InventoryE2ESuite) TestQueries_E2E() {
	// given
	s.addProduct("Hammer", 10, 15.5, "Tools")
	s.addProduct("Sledgehammer", 3, 49.9, "Tools")
	s.addProduct("Garden hose", 7, 20, "Garden")

	s.Run("display all", func() {
		s.Equal([]string{"Hammer", "Sledgehammer", "Garden hose"}, names(s.getProducts("/displayAll")))
	})
	s.Run("find by id", func() {
		p := s.getProduct("/findById/2")
		s.Equal(service.ProductDto{ID: 2, Name: "Sledgehammer", Quantity: 3, Price: 49.9, Category: "Tools"}, p)
	})
	s.Run("find by name returns the first substring match", func() {
		s.Equal("Hammer", s.getProduct("/findByName/HAMMER").Name)
	})
	s.Run("find by category ignores case", func() {
		s.Equal([]string{"Hammer", "Sledgehammer"}, names(s.getProducts("/findByCategory/tools")))
	})
	s.Run("filter by price uses exclusive bounds", func() {
		products := s.getProducts("/filterByPrice?minPrice=15.5&maxPrice=50&category=Tools")
		s.Equal([]string{"Sledgehammer"}, names(products))
	})
}

func (s *InventoryE2ESuite) TestNotFound_E2E() {
	s.addProduct("Hammer", 10, 15.5, "Tools")

	testCases := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"unknown id", http.MethodGet, "/findById/99", http.StatusNotFound, "Product not found: 99"},
		{"unknown name", http.MethodGet, "/findByName/wrench", http.StatusNotFound, "Product not found: wrench"},
		{"unknown category", http.MethodGet, "/findByCategory/Garden", http.StatusNotFound, "Category not found: Garden"},
		{
			"empty price range", http.MethodGet, "/filterByPrice?minPrice=100&maxPrice=200&category=Tools", http.StatusNotFound,
			"Product not found: No products found in category 'Tools' within price range 100.0 to 200.0",
		},
		{
			"price range category is case sensitive", http.MethodGet, "/filterByPrice?minPrice=1&maxPrice=20&category=tools", http.StatusNotFound,
			"Product not found: No products found in category 'tools' within price range 1.0 to 20.0",
		},
		{"reduce unknown product", http.MethodPut, "/findByName/wrench/reduceQuantity?quantity=1", http.StatusOK, "No such products found"},
		{"restore unknown product", http.MethodPut, "/wrench/restore?quantity=1", http.StatusOK, "Product not found"},
		{"delete unknown product", http.MethodDelete, "/removeProduct/99", http.StatusNotFound, "Product not found: 99"},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			body, code := s.doRequest(tc.method, tc.path, nil)
			s.Equal(tc.wantCode, code)
			s.Equal(tc.wantBody, body)
		})
	}
}

func (s *InventoryE2ESuite) TestStockLifecycle_E2E() {
	// given
	s.addProduct("Hammer", 10, 15.5, "Tools")

	steps := []struct {
		path         string
		wantBody     string
		wantQuantity int32
	}{
		{"/findByName/ham/reduceQuantity?quantity=4", "Purchase successful!", 6},
		{"/findByName/ham/reduceQuantity?quantity=7", "Not enough quantity", 6},
		{"/findByName/ham/reduceQuantity?quantity=6", "Purchase successful!", 0},
		{"/Hammer/restore?quantity=10", "Quantity restored after order deletion!", 10},
		{"/updateQuantity?name=hammer&quantity=25", "Quantity updated successfully", 25},
	}
	for _, step := range steps {
		// when
		body, code := s.doRequest(http.MethodPut, step.path, nil)

		// then
		s.Require().Equal(http.StatusOK, code, step.path)
		s.Require().Equal(step.wantBody, body, step.path)
		s.Require().Equal(step.wantQuantity, s.getProduct("/findById/1").Quantity, step.path)
	}

	s.Run("negative quantity is rejected", func() {
		_, code := s.doRequest(http.MethodPut, "/findByName/ham/reduceQuantity?quantity=-1", nil)
		s.Equal(http.StatusBadRequest, code)
	})

	s.Run("every persisted change is published", func() {
		consumer, err := s.js.OrderedConsumer(s.ctx, "INVENTORY", jetstream.OrderedConsumerConfig{
			FilterSubjects: []string{messaging.StockChangedSubject},
		})
		s.Require().NoError(err)
		batch, err := consumer.Fetch(10, jetstream.FetchMaxWait(2*time.Second))
		s.Require().NoError(err)

		var got []string
		for msg := range batch.Messages() {
			var event events.StockChangedEvent
			s.Require().NoError(json.Unmarshal(msg.Data(), &event))
			got = append(got, fmt.Sprintf("%s %d %d", event.Operation, event.Delta, event.Quantity))
		}
		s.Equal([]string{"reduce -4 6", "reduce -6 0", "restore 10 10", "set 0 25"}, got)
	})
}

func (s *InventoryE2ESuite) TestProductManagement_E2E() {
	s.addProduct("Hammer", 10, 15.5, "Tools")

	s.Run("validation errors", func() {
		body, code := s.doRequest(http.MethodPost, "/addProduct",
			service.ProductCreateDto{Name: "", Quantity: -1, Price: 1, Category: "Tools"})
		s.Equal(http.StatusBadRequest, code)
		s.JSONEq(`{"validation_errors":{"Name":"failed on rule: required","Quantity":"failed on rule: min"}}`, body)
	})

	s.Run("update replaces every field", func() {
		body, code := s.doRequest(http.MethodPut, "/updateProduct/1",
			service.ProductCreateDto{Name: "Claw hammer", Quantity: 4, Price: 19.99, Category: "Hand tools"})
		s.Require().Equal(http.StatusOK, code, body)
		s.Equal(service.ProductDto{ID: 1, Name: "Claw hammer", Quantity: 4, Price: 19.99, Category: "Hand tools"},
			s.getProduct("/findById/1"))
	})

	s.Run("delete", func() {
		body, code := s.doRequest(http.MethodDelete, "/removeProduct/1", nil)
		s.Equal(http.StatusOK, code)
		s.Equal("Product deleted successfully!", body)
		s.Empty(s.getProducts("/displayAll"))
	})
}

func (s *InventoryE2ESuite) TestConcurrentPurchases_E2E() {
	// given
	s.addProduct("Hammer", 10, 15.5, "Tools")
	const buyers = 25

	// when
	var wg sync.WaitGroup
	results := make(chan string, buyers)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequestWithContext(s.ctx, http.MethodPut,
				s.server.URL+productsURL+"/findByName/"+url.PathEscape("Hammer")+"/reduceQuantity?quantity=1", nil)
			if err != nil {
				results <- err.Error()
				return
			}
			resp, err := s.httpClient.Do(req)
			if err != nil {
				results <- err.Error()
				return
			}
			defer func() { _ = resp.Body.Close() }()
			b, _ := io.ReadAll(resp.Body)
			results <- string(bytes.TrimSpace(b))
		}()
	}
	wg.Wait()
	close(results)

	// then
	counts := map[string]int{}
	for r := range results {
		counts[r]++
	}
	assert.Equal(s.T(), map[string]int{"Purchase successful!": 10, "Not enough quantity": buyers - 10}, counts)
	assert.Equal(s.T(), int32(0), s.getProduct("/findById/1").Quantity)
}
