package receipt

// Operation classification tags. Raw accepts any tag; the recorder's
// variants pin the well-known ones.
const (
	OpDecision   = "autonomous_decision"
	OpGeneration = "code_generation"
	OpPrediction = "prediction"
	OpEvolution  = "self_evolution"
)

// Operation is a typed operation summary headed for the ledger.
// Each variant fixes its classification tag and shapes a compact data
// object; Raw is the open variant for arbitrary operation kinds.
type Operation interface {
	OperationType() string
	Data() Value
}

// Decision summarizes an autonomous decision: the confidence score and
// the chosen technology stack.
type Decision struct {
	Confidence float64
	TechStack  map[string]string
}

func (Decision) OperationType() string { return OpDecision }

func (d Decision) Data() Value {
	stack := make(Object, len(d.TechStack))
	for k, v := range d.TechStack {
		stack[k] = String(v)
	}
	return Object{
		"confidence": Float(d.Confidence),
		"tech_stack": stack,
	}
}

// Generation summarizes a code generation run.
type Generation struct {
	Success     bool
	FilesCount  int64
	ProjectName string
}

func (Generation) OperationType() string { return OpGeneration }

func (g Generation) Data() Value {
	return Object{
		"success":      Bool(g.Success),
		"files_count":  Int(g.FilesCount),
		"project_name": String(g.ProjectName),
	}
}

// Prediction summarizes a prediction pass by category counts.
type Prediction struct {
	NextFeatures   int64
	PotentialBugs  int64
	SecurityIssues int64
}

func (Prediction) OperationType() string { return OpPrediction }

func (p Prediction) Data() Value {
	return Object{
		"next_features_count": Int(p.NextFeatures),
		"bugs_count":          Int(p.PotentialBugs),
		"security_count":      Int(p.SecurityIssues),
	}
}

// Evolution summarizes a self-evolution cycle.
type Evolution struct {
	Evolved      bool
	Generation   int64
	Improvements []string
}

func (Evolution) OperationType() string { return OpEvolution }

func (e Evolution) Data() Value {
	improvements := make(Array, len(e.Improvements))
	for i, imp := range e.Improvements {
		improvements[i] = String(imp)
	}
	return Object{
		"evolved":      Bool(e.Evolved),
		"generation":   Int(e.Generation),
		"improvements": improvements,
	}
}

// Raw is the open operation variant: an arbitrary classification tag with
// a caller-shaped summary payload.
type Raw struct {
	Type    string
	Payload Value
}

func (r Raw) OperationType() string { return r.Type }

func (r Raw) Data() Value { return r.Payload }
