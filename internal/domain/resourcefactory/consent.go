package resourcefactory

import (
	"fmt"
	"strings"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/pkg/fhirmodels"
)

// consentFactory builds Consent payloads using R4 field names specifically
// (patient, dateTime, policyRule, a single provision object) since these
// are exactly the fields that drift between R4 and R5 and a generic
// reflection-based builder would silently pick up the wrong shape.
type consentFactory struct{}

func (f *consentFactory) Kind() Kind { return KindConsent }

func (f *consentFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	subjectRef, ok := alloc.Lookup("subject")
	if !ok {
		return Payload{}, fmt.Errorf("%w: consent requires a resolved subject", corerr.ErrUnresolvedReference)
	}

	id := alloc.Allocate("consent:" + in.str("consent_category"))
	wire := newWire(KindConsent, id, "consent")

	wire["status"] = "active"
	wire["scope"] = codeableConcept((terminology.CodedConcept{
		System: "http://terminology.hl7.org/CodeSystem/consentscope",
		Code:   "patient-privacy",
	}).ToFHIR())
	wire["patient"] = refObj("Patient/" + subjectRef)
	if dt := in.str("consent_date_time"); dt != "" {
		wire["dateTime"] = dt
	}
	wire["policyRule"] = codeableConcept((terminology.CodedConcept{
		System: "http://terminology.hl7.org/CodeSystem/v3-ActCode",
		Code:   policyRuleCode(in.str("consent_policy_rule")),
	}).ToFHIR())
	wire["provision"] = map[string]interface{}{}

	var codeIssue string
	if category := in.str("consent_category"); category != "" {
		concept := coder.Code(category, terminology.IntentCondition)
		wire["category"] = []interface{}{codeableConcept(concept.ToFHIR())}
		if !concept.HasCoding() {
			codeIssue = category
		}
	}

	p := Payload{Kind: KindConsent, ID: id, Wire: wire, DeclaredDependencies: []string{subjectRef}}
	if codeIssue != "" {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(codeIssue))
	}
	return p, nil
}

// policyRuleCode maps loose consent-capture phrasing onto the fixed
// v3-ActCode consent-directive code system. It defaults to the opt-in
// code, the common case, rather than inventing a refusal the input never
// stated.
func policyRuleCode(text string) string {
	switch strings.ToLower(text) {
	case "opt-out", "optout", "opt_out", "revoke", "withdraw", "decline":
		return fhirmodels.ConsentOptOut
	default:
		return fhirmodels.ConsentOptIn
	}
}
