//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rentwheels/booking-wizard/internal/application"
	"github.com/rentwheels/booking-wizard/internal/catalog"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
	"github.com/rentwheels/booking-wizard/internal/events"
	"github.com/rentwheels/booking-wizard/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// wizardStack holds wired-up wizard service components.
type wizardStack struct {
	Service         *application.WizardService
	Upstream        *httptest.Server
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_wizard",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_wizard sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(&repository.BookingRecordModel{}, &repository.VehicleTypeCacheModel{}))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicWizardBookings)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// startFakeUpstream serves a minimal vehicle catalog and accepts
// bookings, mimicking the upstream rental backend.
func startFakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/vehicle-types":
			_, _ = w.Write([]byte(`[
				{"id": "1", "name": "cruiser", "wheels": 2},
				{"id": "2", "name": "hatchback", "wheels": 4},
				{"id": "3", "name": "sports", "wheels": 4}
			]`))
		case r.URL.Path == "/api/vehicles/2":
			_, _ = w.Write([]byte(`[
				{"id": "7", "name": "Hyundai i20", "price_per_day": 1500},
				{"id": "8", "name": "Maruti Swift", "price_per_day": 1100}
			]`))
		case r.URL.Path == "/api/bookings" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// setupWizardStack wires up the full wizard service stack against the
// fake upstream, postgres and kafka.
func setupWizardStack(t *testing.T, db *gorm.DB, brokers []string) *wizardStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	upstream := startFakeUpstream(t)
	client := catalog.NewClient(upstream.URL, catalog.Policy{
		ExcludedTypeNames: []string{"sports"},
		BlockedModelNames: []string{"Maruti Swift", "Mahindra Scorpio", "Honda City"},
	})

	producer := events.NewProducer(brokers, "booking-wizard-test", logger)
	service := application.NewWizardService(
		client,
		repository.NewGormBookingRecordRepository(db),
		repository.NewGormVehicleTypeCache(db),
		producer,
		wizard.NewStandardPricingStrategy(),
		logger,
	)
	service.LoadTypes(context.Background())

	return &wizardStack{
		Service:  service,
		Upstream: upstream,
		CleanupProducer: func() {
			_ = producer.Close()
			upstream.Close()
		},
	}
}

// setupColdWizardStack wires a second service instance whose upstream
// is unreachable, for cache-fallback tests. No producer is attached.
func setupColdWizardStack(t *testing.T, db *gorm.DB, deadUpstreamURL string) *application.WizardService {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	return application.NewWizardService(
		catalog.NewClient(deadUpstreamURL, catalog.Policy{}),
		repository.NewGormBookingRecordRepository(db),
		repository.NewGormVehicleTypeCache(db),
		nil,
		wizard.NewStandardPricingStrategy(),
		logger,
	)
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) events.Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		envelope, err := events.ParseEnvelope(msg.Value)
		if err != nil {
			continue
		}
		if envelope.Type == expectedType {
			return envelope
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
