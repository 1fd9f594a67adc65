package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/processor"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/queue"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/repository"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/services"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/pg"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/redis"
	"github.com/andrewPaul004/ColorGarbApp-sub004/test/fixtures"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB = pg.DB

type TestEnvironment struct {
	DB           *pg.DB
	Redis        *miniredis.Miniredis
	RedisAdapter redis.RedisAdapter
	Queue        *queue.Queue
	AuditRepo    *repository.CommunicationAuditRepository
	OrderRepo    *repository.OrderRepository
	AuditService *services.AuditService
	Processor    *processor.DeliveryWebhookProcessor
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.OrderEntity{},
		&repository.UserEntity{},
		&repository.CommunicationLogEntity{},
		&repository.NotificationDeliveryLogEntity{},
		&repository.MessageAuditTrailEntity{},
		&repository.MessageEditEntity{},
	)
	require.NoError(t, err)

	pgDB := &testDB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	queueConfig := queue.QueueConfig{
		Name:              "test:webhooks",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}

	q, err := queue.NewQueue(redisAdapter, queueConfig)
	require.NoError(t, err)

	auditRepo := repository.NewCommunicationAuditRepository(pgDB)
	orderRepo := repository.NewOrderRepository(pgDB)
	auditService := services.NewAuditService(auditRepo, orderRepo)

	idempotency := processor.NewIdempotencyService(redisAdapter, processor.DefaultIdempotencyConfig())
	webhookProcessor := processor.NewDeliveryWebhookProcessor(auditService, idempotency)

	return &TestEnvironment{
		DB:           pgDB,
		Redis:        mr,
		RedisAdapter: redisAdapter,
		Queue:        q,
		AuditRepo:    auditRepo,
		OrderRepo:    orderRepo,
		AuditService: auditService,
		Processor:    webhookProcessor,
	}
}

func (env *TestEnvironment) Cleanup() {
	// Stop queue first (gracefully drain messages)
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	// Give time for any in-flight operations to complete
	time.Sleep(100 * time.Millisecond)
	// Then close Redis
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func (env *TestEnvironment) seedLog(t *testing.T, externalID string) *model.CommunicationLog {
	ctx := context.Background()

	order := &repository.OrderEntity{OrganizationID: 10, OrderNumber: "CG-2025-E2E"}
	require.NoError(t, env.DB.Write(ctx).Create(order).Error)

	log, err := env.AuditService.LogCommunication(ctx, fixtures.NewTestCommunicationLog(order.ID, externalID))
	require.NoError(t, err)
	return log
}

func TestE2E_WebhookDeliveryFlow(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	log := env.seedLog(t, "ext-e2e-1")

	event := fixtures.NewTestDeliveryWebhook("ext-e2e-1", model.DeliveryStatusDelivered)
	_, err := env.Queue.PublishJSON(ctx, event, map[string]string{"provider": event.Provider})
	require.NoError(t, err)

	processed := make(chan error, 1)
	err = env.Queue.Consume(func(ctx context.Context, msg *queue.Message) error {
		err := env.Processor.Process(ctx, msg)
		processed <- err
		return err
	})
	require.NoError(t, err)

	select {
	case err := <-processed:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("webhook not processed within timeout")
	}

	updated, err := env.AuditRepo.GetByExternalID(ctx, "ext-e2e-1")
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusDelivered, updated.DeliveryStatus)
	assert.NotNil(t, updated.DeliveredAt)

	transitions, err := env.AuditRepo.GetDeliveryLogs(ctx, log.ID)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, model.DeliveryStatusDelivered, transitions[0].Status)
	assert.Equal(t, "sendgrid", transitions[0].DeliveryProvider)
}

func TestE2E_DuplicateWebhookAppliedOnce(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	log := env.seedLog(t, "ext-e2e-2")

	event := fixtures.NewTestDeliveryWebhook("ext-e2e-2", model.DeliveryStatusDelivered)

	// Same event id delivered twice, as providers are allowed to do.
	msg1 := &queue.Message{ID: "1-0", Data: mustJSON(t, event)}
	msg2 := &queue.Message{ID: "2-0", Data: mustJSON(t, event)}

	require.NoError(t, env.Processor.Process(ctx, msg1))
	require.NoError(t, env.Processor.Process(ctx, msg2))

	transitions, err := env.AuditRepo.GetDeliveryLogs(ctx, log.ID)
	require.NoError(t, err)
	assert.Len(t, transitions, 1)
}

func TestE2E_WebhookForUnknownMessageIsDropped(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedLog(t, "ext-e2e-3")

	event := fixtures.NewTestDeliveryWebhook("no-such-external-id", model.DeliveryStatusDelivered)
	msg := &queue.Message{ID: "1-0", Data: mustJSON(t, event)}

	// Unknown external ids are acked, not retried.
	assert.NoError(t, env.Processor.Process(ctx, msg))

	known, err := env.AuditRepo.GetByExternalID(ctx, "ext-e2e-3")
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusSent, known.DeliveryStatus)
}

func TestE2E_OutOfOrderStatusOverwrites(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	log := env.seedLog(t, "ext-e2e-4")

	delivered := fixtures.NewTestDeliveryWebhook("ext-e2e-4", model.DeliveryStatusDelivered)
	sent := fixtures.NewTestDeliveryWebhook("ext-e2e-4", model.DeliveryStatusSent)

	require.NoError(t, env.Processor.Process(ctx, &queue.Message{ID: "1-0", Data: mustJSON(t, delivered)}))
	require.NoError(t, env.Processor.Process(ctx, &queue.Message{ID: "2-0", Data: mustJSON(t, sent)}))

	updated, err := env.AuditRepo.GetByExternalID(ctx, "ext-e2e-4")
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusSent, updated.DeliveryStatus)

	transitions, err := env.AuditRepo.GetDeliveryLogs(ctx, log.ID)
	require.NoError(t, err)
	assert.Len(t, transitions, 2)
}
