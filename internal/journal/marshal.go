package journal

import (
	"encoding/json"
	"fmt"

	"github.com/pmachta/molnorm/internal/canon"
)

// marshalRulesFired converts a firing list to canonical JSON TEXT for
// storage. Uses RFC 8785 canonical JSON so the stored bytes are
// byte-identical for identical firings.
func marshalRulesFired(fired []string) (string, error) {
	data, err := canon.MarshalCanonical(fired)
	if err != nil {
		return "", fmt.Errorf("marshal rules fired: %w", err)
	}
	return string(data), nil
}

// unmarshalRulesFired parses stored JSON TEXT back to a firing list.
// An empty list round-trips as a non-nil empty slice.
func unmarshalRulesFired(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var fired []string
	if err := json.Unmarshal([]byte(data), &fired); err != nil {
		return nil, fmt.Errorf("unmarshal rules fired: %w", err)
	}
	return fired, nil
}
