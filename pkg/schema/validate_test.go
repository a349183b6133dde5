package schema

import (
	"bytes"
	"testing"
)

func TestValidateScoringScheme(t *testing.T) {
	doc := []byte(`{
		"name": "default",
		"calculate_interval": true,
		"metrics": [
			{"name": "Pearson Correlation Coefficient", "weight": 10, "lower_bound": -1, "upper_bound": 1, "ideal_value": 1}
		],
		"thresholds": [
			{"name": "All", "weight": 1}
		]
	}`)
	if err := Validate(ScoringScheme, bytes.NewReader(doc)); err != nil {
		t.Errorf("expected a valid scoring scheme document, got: %v", err)
	}
}

func TestValidateScoringSchemeRejectsMissingMetrics(t *testing.T) {
	doc := []byte(`{"name": "default"}`)
	if err := Validate(ScoringScheme, bytes.NewReader(doc)); err == nil {
		t.Error("expected a missing 'metrics' field to fail validation")
	}
}

func TestValidateCommunicatorGroup(t *testing.T) {
	doc := []byte(`{"id": "primary", "verbosity": "loud", "maximum_size": 100}`)
	if err := Validate(CommunicatorGroup, bytes.NewReader(doc)); err != nil {
		t.Errorf("expected a valid communicator document, got: %v", err)
	}
}

func TestValidateCommunicatorGroupRejectsUnknownVerbosity(t *testing.T) {
	doc := []byte(`{"id": "primary", "verbosity": "extremely-loud"}`)
	if err := Validate(CommunicatorGroup, bytes.NewReader(doc)); err == nil {
		t.Error("expected an unknown verbosity value to fail validation")
	}
}
