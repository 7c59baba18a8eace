package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/pkg/fhirmodels"
)

// patientFactory builds the Patient resource the rest of a bundle's
// clinical resources reference as subject. Patient identity fields come
// from the request's declared subject, never from extracted free text.
type patientFactory struct{}

func (f *patientFactory) Kind() Kind { return KindPatient }

func (f *patientFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	if !in.has("subject_family_name") && !in.has("subject_identifier_value") {
		return Payload{}, fmt.Errorf("%w: patient requires a name or identifier", corerr.ErrInvalidInput)
	}

	id := alloc.Allocate("subject")
	wire := newWire(KindPatient, id, "patient")

	if fam := in.str("subject_family_name"); fam != "" {
		name := map[string]interface{}{"use": "official", "family": fam}
		if given := in.strSlice("subject_given_names"); len(given) > 0 {
			name["given"] = given
		}
		wire["name"] = []interface{}{name}
	}
	if gender := in.str("subject_gender"); gender != "" {
		wire["gender"] = normalizeGender(gender)
	}
	if dob := in.str("subject_birth_date"); dob != "" {
		wire["birthDate"] = dob
	}
	if sysval := in.str("subject_identifier_system"); sysval != "" && in.str("subject_identifier_value") != "" {
		wire["identifier"] = []interface{}{map[string]interface{}{
			"system": sysval,
			"value":  in.str("subject_identifier_value"),
		}}
	}

	return Payload{Kind: KindPatient, ID: id, Wire: wire}, nil
}

// normalizeGender maps loose extracted text onto the FHIR R4
// AdministrativeGender code system, defaulting to unknown rather than
// guessing when the text doesn't match a known value.
func normalizeGender(text string) string {
	switch text {
	case fhirmodels.GenderMale, "m", "M", "Male":
		return fhirmodels.GenderMale
	case fhirmodels.GenderFemale, "f", "F", "Female":
		return fhirmodels.GenderFemale
	case fhirmodels.GenderOther:
		return fhirmodels.GenderOther
	default:
		return fhirmodels.GenderUnknown
	}
}
