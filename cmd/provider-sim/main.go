package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DeliveryStatus mirrors the status vocabulary the audit service accepts.
type DeliveryStatus string

const (
	StatusQueued    DeliveryStatus = "queued"
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusBounced   DeliveryStatus = "bounced"
	StatusFailed    DeliveryStatus = "failed"
)

// SendRequest represents a notification send request
type SendRequest struct {
	Type      string `json:"type" binding:"required"` // "email" or "sms"
	Recipient string `json:"recipient" binding:"required"`
	Subject   string `json:"subject"`
	Content   string `json:"content" binding:"required"`
}

// SendResponse represents the response from accepting a notification
type SendResponse struct {
	ExternalMessageID string         `json:"external_message_id"`
	Status            DeliveryStatus `json:"status"`
	Provider          string         `json:"provider"`
	AcceptedAt        time.Time      `json:"accepted_at"`
}

// DeliveryCallback is the webhook body posted back to the audit API. The
// shape matches the /webhooks/delivery endpoint.
type DeliveryCallback struct {
	EventID           string         `json:"event_id"`
	Provider          string         `json:"provider"`
	ExternalMessageID string         `json:"external_message_id"`
	Status            DeliveryStatus `json:"status"`
	StatusDetails     string         `json:"status_details,omitempty"`
	OccurredAt        time.Time      `json:"occurred_at"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string    `json:"status"`
	ProviderID   string    `json:"provider_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MockProvider simulates an email/SMS delivery provider. Every accepted
// message produces a sequence of delivery status callbacks against the
// configured webhook URL, the same way SendGrid or Twilio would.
type MockProvider struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	providerID   string
	webhookURL   string
	webhookToken string
	client       *http.Client
	rng          *rand.Rand
}

// NewMockProvider creates a new mock provider instance
func NewMockProvider(deliveryRate float64, minDelay, maxDelay time.Duration, webhookURL, webhookToken string) *MockProvider {
	return &MockProvider{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		providerID:   "MOCK_PROVIDER_" + uuid.New().String()[:8],
		webhookURL:   webhookURL,
		webhookToken: webhookToken,
		client:       &http.Client{Timeout: 10 * time.Second},
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// simulateLifecycle walks one message through sent -> delivered/bounced,
// firing a callback per transition.
func (m *MockProvider) simulateLifecycle(externalID string, notifType string) {
	m.postCallback(externalID, StatusSent, "")

	time.Sleep(m.randomDelay())

	if m.shouldSucceed() {
		m.postCallback(externalID, StatusDelivered, "")

		// Email opens come in later, if at all.
		if notifType == "email" && m.rng.Float64() < 0.5 {
			time.Sleep(m.randomDelay())
			m.postCallback(externalID, StatusRead, "")
		}
		return
	}

	code := m.randomErrorCode()
	m.postCallback(externalID, m.failureStatus(code), m.errorMessage(code))
}

func (m *MockProvider) postCallback(externalID string, status DeliveryStatus, details string) {
	cb := DeliveryCallback{
		EventID:           uuid.New().String(),
		Provider:          m.providerID,
		ExternalMessageID: externalID,
		Status:            status,
		StatusDetails:     details,
		OccurredAt:        time.Now(),
	}

	body, err := json.Marshal(cb)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode callback")
		return
	}

	req, err := http.NewRequest(http.MethodPost, m.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build callback request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if m.webhookToken != "" {
		req.Header.Set("X-Provider-Token", m.webhookToken)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		log.Error().
			Err(err).
			Str("external_message_id", externalID).
			Str("status", string(status)).
			Msg("Callback delivery failed")
		return
	}
	defer resp.Body.Close()

	log.Info().
		Str("external_message_id", externalID).
		Str("status", string(status)).
		Int("response", resp.StatusCode).
		Msg("Callback posted")
}

func (m *MockProvider) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockProvider) shouldSucceed() bool {
	return m.rng.Float64() < m.deliveryRate
}

func (m *MockProvider) randomErrorCode() string {
	errorCodes := []string{
		"MAILBOX_FULL",
		"HARD_BOUNCE",
		"INVALID_RECIPIENT",
		"NETWORK_ERROR",
		"TIMEOUT",
		"PROVIDER_REJECTED",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockProvider) failureStatus(code string) DeliveryStatus {
	switch code {
	case "MAILBOX_FULL", "HARD_BOUNCE", "INVALID_RECIPIENT":
		return StatusBounced
	default:
		return StatusFailed
	}
}

func (m *MockProvider) errorMessage(code string) string {
	messages := map[string]string{
		"MAILBOX_FULL":      "The recipient mailbox is full",
		"HARD_BOUNCE":       "The recipient address does not exist",
		"INVALID_RECIPIENT": "The recipient address is malformed",
		"NETWORK_ERROR":     "Network connectivity issue with downstream carrier",
		"TIMEOUT":           "Delivery timed out",
		"PROVIDER_REJECTED": "Provider rejected the message",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mock provider and routes
type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

// Send accepts a notification and starts the delivery simulation
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	externalID := uuid.New().String()

	log.Info().
		Str("external_message_id", externalID).
		Str("type", req.Type).
		Str("recipient", req.Recipient).
		Msg("Accepted notification")

	go h.provider.simulateLifecycle(externalID, req.Type)

	c.JSON(http.StatusAccepted, SendResponse{
		ExternalMessageID: externalID,
		Status:            StatusQueued,
		Provider:          h.provider.providerID,
		AcceptedAt:        time.Now(),
	})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.provider.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Provider temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		ProviderID:   h.provider.providerID,
		Timestamp:    time.Now(),
		DeliveryRate: h.provider.deliveryRate,
	})
}

// UpdateConfig allows changing provider configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.DeliveryRate != nil {
		if *config.DeliveryRate >= 0 && *config.DeliveryRate <= 1.0 {
			h.provider.deliveryRate = *config.DeliveryRate
			log.Info().Float64("rate", *config.DeliveryRate).Msg("Updated delivery rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"delivery_rate": h.provider.deliveryRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/notifications/send", handler.Send)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 1*time.Second)
	maxDelay := getEnvDuration("MAX_DELAY", 5*time.Second)
	webhookURL := getEnv("WEBHOOK_URL", "http://localhost:8080/api/v1/webhooks/delivery")
	webhookToken := getEnv("WEBHOOK_TOKEN", "")

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Str("webhook_url", webhookURL).
		Msg("Starting Mock Notification Provider")

	// Create mock provider
	provider := NewMockProvider(deliveryRate, minDelay, maxDelay, webhookURL, webhookToken)
	handler := NewHandler(provider)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
