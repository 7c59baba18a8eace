package resourcefactory

// Input is the generic per-kind field bag a factory builds a payload from.
// The pipeline orchestrator assembles one Input per intended resource from
// the entities the extractor produced and the request's declared subject;
// factories read named fields by convention for their kind and validate
// that the ones they require are present, per the factory template's first
// step.
type Input map[string]interface{}

func (in Input) str(key string) string {
	v, _ := in[key].(string)
	return v
}

func (in Input) has(key string) bool {
	v, ok := in[key]
	if !ok {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

func (in Input) strSlice(key string) []string {
	v, _ := in[key].([]string)
	return v
}
