package config

import "testing"

func TestWithDefaults_FillsZeroFields(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.PerRequestTimeoutMS != DefaultPerRequestTimeoutMS {
		t.Fatalf("expected default timeout, got %d", c.PerRequestTimeoutMS)
	}
	if c.MaxConcurrentRequests != DefaultMaxConcurrentRequests {
		t.Fatalf("expected default max concurrent requests, got %d", c.MaxConcurrentRequests)
	}
	if c.TierThresholds != defaultTierThresholds {
		t.Fatalf("expected default tier thresholds, got %v", c.TierThresholds)
	}
}

func TestWithDefaults_PreservesCallerValues(t *testing.T) {
	c := Config{PerRequestTimeoutMS: 500, MaxConcurrentRequests: 10}.WithDefaults()
	if c.PerRequestTimeoutMS != 500 {
		t.Fatalf("expected caller timeout preserved, got %d", c.PerRequestTimeoutMS)
	}
	if c.MaxConcurrentRequests != 10 {
		t.Fatalf("expected caller max concurrency preserved, got %d", c.MaxConcurrentRequests)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []Config{
		{PerRequestTimeoutMS: 0},
		{PerRequestTimeoutMS: 100, PerRequestCostCeiling: -1},
		{PerRequestTimeoutMS: 100, MaxConcurrentRequests: 0},
		{PerRequestTimeoutMS: 100, MaxConcurrentRequests: 1, CacheCapacity: 0},
		{PerRequestTimeoutMS: 100, MaxConcurrentRequests: 1, CacheCapacity: 1, TierThresholds: [4]float64{1.5, 0, 0, 0}},
		{PerRequestTimeoutMS: 100, MaxConcurrentRequests: 1, CacheCapacity: 1, MaxInputLength: 0},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	c := Config{}.WithDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLocalFallbackOnly(t *testing.T) {
	c := Config{}
	if !c.LocalFallbackOnly() {
		t.Fatal("expected local fallback when no validator URL is set")
	}
	c.ExternalValidatorURL = "https://validator.example/validate"
	if c.LocalFallbackOnly() {
		t.Fatal("expected remote validator to be used when URL is set")
	}
}
