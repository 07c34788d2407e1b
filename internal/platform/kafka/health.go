// Package kafka holds broker helpers shared by the event producer and the
// readiness probe.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrNoBrokers = errors.New("kafka brokers not configured")

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(list string) []string {
	var brokers []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// HealthChecker reports whether the cluster metadata lists any broker.
type HealthChecker struct {
	brokers []string
	timeout time.Duration
}

func NewHealthChecker(brokers string) *HealthChecker {
	return &HealthChecker{brokers: ParseBrokers(brokers), timeout: 5 * time.Second}
}

// Check dials a short-lived admin client; it matches health.CheckFunc.
func (h *HealthChecker) Check(ctx context.Context) error {
	if len(h.brokers) == 0 {
		return ErrNoBrokers
	}
	client, err := kgo.NewClient(kgo.SeedBrokers(h.brokers...), kgo.DialTimeout(h.timeout))
	if err != nil {
		return fmt.Errorf("kafka admin client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	brokers, err := kadm.NewClient(client).ListBrokers(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("list kafka brokers: %w", err)
	case len(brokers) == 0:
		return errors.New("kafka cluster reported no brokers")
	}
	return nil
}

func (h *HealthChecker) Name() string { return "kafka" }
