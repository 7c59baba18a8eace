package fhir

import (
	"encoding/json"
	"testing"
)

func TestNewTransactionBundle(t *testing.T) {
	entries := []BundleEntry{
		{
			FullURL:  URNReference("11111111-1111-1111-1111-111111111111"),
			Resource: map[string]interface{}{"resourceType": "Patient"},
			Request:  &BundleRequest{Method: "POST", URL: "Patient"},
		},
	}

	b := NewTransactionBundle(entries)

	if b.ResourceType != "Bundle" {
		t.Errorf("expected resourceType Bundle, got %s", b.ResourceType)
	}
	if b.Type != BundleTypeTransaction {
		t.Errorf("expected type transaction, got %s", b.Type)
	}
	if len(b.Entry) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(b.Entry))
	}
}

func TestURNReference(t *testing.T) {
	ref := URNReference("11111111-1111-1111-1111-111111111111")
	if ref != "urn:uuid:11111111-1111-1111-1111-111111111111" {
		t.Errorf("unexpected urn reference: %s", ref)
	}
}

func TestBundle_JSON(t *testing.T) {
	b := NewTransactionBundle([]BundleEntry{
		{
			FullURL:  URNReference("22222222-2222-2222-2222-222222222222"),
			Resource: map[string]interface{}{"resourceType": "Condition"},
			Request:  &BundleRequest{Method: "POST", URL: "Condition"},
		},
	})

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if parsed["type"] != "transaction" {
		t.Errorf("expected type transaction in JSON, got %v", parsed["type"])
	}
}
