package terminology

import "gopkg.in/yaml.v3"

// ReferenceData is the on-disk shape of the ontology/alias tables the
// Terminology Coder loads once at construction. It is YAML so an embedding
// process can version and audit its own reference data, per spec.md §9's
// "keep the data sources auditable and versioned."
type ReferenceData struct {
	Drug      []RowData `yaml:"drug"`
	Lab       []RowData `yaml:"lab"`
	Clinical  []RowData `yaml:"clinical"`
	Diagnosis []RowData `yaml:"diagnosis"`
	Vaccine   []RowData `yaml:"vaccine"`
	Unit      []RowData `yaml:"unit"`

	DrugAliases     map[string]string `yaml:"drug_aliases"`
	ClinicalAliases map[string]string `yaml:"clinical_aliases"`

	// DrugClasses maps a drug code to its pharmacologic class, used by the
	// safety layer's allergy-vs-medication cross-class check (spec.md
	// §4.4.1) rather than by coding lookups themselves.
	DrugClasses map[string]string `yaml:"drug_classes"`
}

// RowData is one ontology row as loaded from YAML.
type RowData struct {
	Term    string `yaml:"term"`
	Code    string `yaml:"code"`
	Display string `yaml:"display"`
}

// LoadReferenceData parses YAML reference data. The embedding process is
// responsible for reading the bytes from wherever it keeps them (on-disk
// state is explicitly outside the core per spec.md §6).
func LoadReferenceData(raw []byte) (ReferenceData, error) {
	var rd ReferenceData
	if err := yaml.Unmarshal(raw, &rd); err != nil {
		return ReferenceData{}, err
	}
	return rd, nil
}

// DefaultReferenceData returns a small built-in reference table covering
// the terms exercised by the pipeline's documented end-to-end scenarios.
// A production deployment is expected to load a far larger table via
// LoadReferenceData; this default exists so the coder is usable without any
// external reference file.
func DefaultReferenceData() ReferenceData {
	return ReferenceData{
		Drug: []RowData{
			{Term: "lisinopril", Code: "29046", Display: "Lisinopril"},
			{Term: "amoxicillin", Code: "723", Display: "Amoxicillin"},
			{Term: "penicillin", Code: "7980", Display: "Penicillin G"},
			{Term: "morphine", Code: "7052", Display: "Morphine"},
			{Term: "metoprolol", Code: "6918", Display: "Metoprolol"},
			{Term: "metformin", Code: "6809", Display: "Metformin"},
			{Term: "ibuprofen", Code: "5640", Display: "Ibuprofen"},
			{Term: "warfarin", Code: "11289", Display: "Warfarin"},
			{Term: "aspirin", Code: "1191", Display: "Aspirin"},
		},
		Lab: []RowData{
			{Term: "systolic blood pressure", Code: "8480-6", Display: "Systolic blood pressure"},
			{Term: "diastolic blood pressure", Code: "8462-4", Display: "Diastolic blood pressure"},
			{Term: "heart rate", Code: "8867-4", Display: "Heart rate"},
			{Term: "oxygen saturation", Code: "59408-5", Display: "Oxygen saturation in Arterial blood by Pulse oximetry"},
			{Term: "body temperature", Code: "8310-5", Display: "Body temperature"},
			{Term: "respiratory rate", Code: "9279-1", Display: "Respiratory rate"},
		},
		Clinical: []RowData{
			{Term: "hypertension", Code: "38341003", Display: "Hypertensive disorder"},
			{Term: "infection", Code: "40733004", Display: "Infectious disease"},
			{Term: "diabetes", Code: "73211009", Display: "Diabetes mellitus"},
			{Term: "pregnancy", Code: "77386006", Display: "Pregnant"},
			{Term: "oral route", Code: "26643006", Display: "Oral route"},
			{Term: "intravenous route", Code: "47625008", Display: "Intravenous route"},
			{Term: "intramuscular route", Code: "78421000", Display: "Intramuscular route"},
		},
		Diagnosis: []RowData{
			{Term: "hypertension", Code: "I10", Display: "Essential (primary) hypertension"},
			{Term: "infection", Code: "A49.9", Display: "Bacterial infection, unspecified"},
		},
		Vaccine: []RowData{
			{Term: "influenza", Code: "88", Display: "Influenza virus vaccine"},
			{Term: "covid-19", Code: "213", Display: "COVID-19 vaccine"},
		},
		Unit: []RowData{
			{Term: "mg", Code: "mg", Display: "milligram"},
			{Term: "g", Code: "g", Display: "gram"},
			{Term: "mcg", Code: "ug", Display: "microgram"},
			{Term: "ml", Code: "mL", Display: "milliliter"},
			{Term: "u", Code: "U", Display: "unit"},
			{Term: "kg", Code: "kg", Display: "kilogram"},
			{Term: "lb", Code: "[lb_av]", Display: "pound"},
		},
		DrugAliases: map[string]string{
			"amoxil":   "amoxicillin",
			"trimox":   "amoxicillin",
			"prinivil": "lisinopril",
			"zestril":  "lisinopril",
			"lopressor": "metoprolol",
			"toprol":   "metoprolol",
			"glucophage": "metformin",
			"advil":    "ibuprofen",
			"motrin":   "ibuprofen",
			"coumadin": "warfarin",
		},
		ClinicalAliases: map[string]string{
			"high blood pressure": "hypertension",
			"htn":                 "hypertension",
			"dm":                  "diabetes",
		},
		DrugClasses: map[string]string{
			"723":  "penicillin-class", // amoxicillin
			"7980": "penicillin-class", // penicillin G
			"6918": "beta-blocker",     // metoprolol
			"1191": "nsaid",           // aspirin
			"5640": "nsaid",           // ibuprofen
			"7052": "opioid",          // morphine
		},
	}
}
