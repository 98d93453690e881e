package payment

import (
	"context"
	"sync"
)

type mockLauncher struct {
	mu      sync.Mutex
	configs []Config
	err     error
}

func (m *mockLauncher) Launch(_ context.Context, cfg Config) (Launch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = append(m.configs, cfg)
	if m.err != nil {
		return Launch{}, m.err
	}
	return Launch{Provider: "mock", Config: &cfg}, nil
}

func testConfig(ref string) Config {
	return Config{
		Key:       "pk_test",
		Email:     "ama@example.com",
		Amount:    16000,
		Currency:  "GHS",
		Reference: ref,
		Metadata:  Metadata{TransactionID: "txn-1"},
	}
}
