package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "freshmandi-dev",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "freshmandi-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "freshmandi-dev" {
		t.Errorf("expected pubsub project to default to firebase project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.OrderCreatedTopic != defaultOrderCreatedTopicID {
		t.Errorf("unexpected default order topic: %s", cfg.PubSub.OrderCreatedTopic)
	}
	if cfg.Checkout.PlatformFeeBps != defaultPlatformFeeBps {
		t.Errorf("unexpected default platform fee bps: %d", cfg.Checkout.PlatformFeeBps)
	}
	if cfg.Checkout.SellerDeliversFee != defaultSellerDeliversFee {
		t.Errorf("unexpected default seller delivery fee: %d", cfg.Checkout.SellerDeliversFee)
	}
	if cfg.Checkout.BuyerPickupFee != defaultBuyerPickupFee {
		t.Errorf("unexpected default pickup fee: %d", cfg.Checkout.BuyerPickupFee)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                  "9090",
		"API_SERVER_READ_TIMEOUT":          "5s",
		"API_FIREBASE_PROJECT_ID":          "freshmandi-prod",
		"API_FIRESTORE_PROJECT_ID":         "freshmandi-db",
		"API_FIRESTORE_EMULATOR_HOST":      "localhost:8900",
		"API_PUBSUB_ORDER_CREATED_TOPIC":   "orders-v2",
		"API_CHECKOUT_PLATFORM_FEE_BPS":    "150",
		"API_CHECKOUT_SELLER_DELIVERS_FEE": "5000",
		"API_CHECKOUT_BUYER_PICKUP_FEE":    "1000",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "freshmandi-db" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8900" {
		t.Errorf("unexpected emulator host: %s", cfg.Firestore.EmulatorHost)
	}
	if cfg.PubSub.OrderCreatedTopic != "orders-v2" {
		t.Errorf("unexpected order topic: %s", cfg.PubSub.OrderCreatedTopic)
	}
	if cfg.Checkout.PlatformFeeBps != 150 {
		t.Errorf("unexpected platform fee bps: %d", cfg.Checkout.PlatformFeeBps)
	}
	if cfg.Checkout.SellerDeliversFee != 5000 {
		t.Errorf("unexpected seller delivery fee: %d", cfg.Checkout.SellerDeliversFee)
	}
	if cfg.Checkout.BuyerPickupFee != 1000 {
		t.Errorf("unexpected pickup fee: %d", cfg.Checkout.BuyerPickupFee)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_FIREBASE_PROJECT_ID=freshmandi-dot\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firebase.ProjectID != "freshmandi-dot" {
		t.Errorf("expected firebase project from dotenv, got %s", cfg.Firebase.ProjectID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadRejectsFeeOutOfRange(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID":       "freshmandi-dev",
		"API_CHECKOUT_PLATFORM_FEE_BPS": "10500",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validationErr.Fields()
	if len(fields) != 1 || fields[0] != "Checkout.PlatformFeeBps" {
		t.Errorf("unexpected invalid fields: %v", fields)
	}
}
