package model

import "fmt"

// NumCompartments is the length of the state and rate vectors.
const NumCompartments = 28

// Compartment indices into the state vector.
const (
	OA = iota
	E
	L1
	L2
	L3
	L4
	L5
	A

	// occluded route
	L2o
	L3o
	L4o
	L5o
	Ao

	// primary infected shadow
	L2I
	L3I
	L4I
	L5I
	AI

	// occluded infected shadow
	L2oI
	L3oI
	L4oI
	L5oI
	AoI

	// particle pools and the overwintering infected shadow
	PI
	ApoPI
	SymPI
	OAPI
	OAI
)

var compartmentNames = [NumCompartments]string{
	"OA", "E", "L1", "L2", "L3", "L4", "L5", "A",
	"L2o", "L3o", "L4o", "L5o", "Ao",
	"L2I", "L3I", "L4I", "L5I", "AI",
	"L2oI", "L3oI", "L4oI", "L5oI", "AoI",
	"P_I", "Apo_PI", "Sym_PI", "OA_PI", "OAI",
}

// CompartmentNames returns the compartment names in index order.
func CompartmentNames() []string {
	out := make([]string, NumCompartments)
	copy(out, compartmentNames[:])
	return out
}

// CompartmentIndex resolves a compartment name to its index.
func CompartmentIndex(name string) (int, error) {
	for i, n := range compartmentNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("model: unknown compartment %q", name)
}

// InfectedIndices lists the infected shadow compartments, including OAI.
var InfectedIndices = []int{L2I, L3I, L4I, L5I, AI, L2oI, L3oI, L4oI, L5oI, AoI, OAI}

// HostIndices lists every compartment that counts individuals rather than
// particles.
var HostIndices = []int{
	OA, E, L1, L2, L3, L4, L5, A, L2o, L3o, L4o, L5o, Ao,
	L2I, L3I, L4I, L5I, AI, L2oI, L3oI, L4oI, L5oI, AoI, OAI,
}

// Compartments is the named-field form of a state vector, used by config
// files.
type Compartments struct {
	OA    float64 `yaml:"OA"`
	E     float64 `yaml:"E"`
	L1    float64 `yaml:"L1"`
	L2    float64 `yaml:"L2"`
	L3    float64 `yaml:"L3"`
	L4    float64 `yaml:"L4"`
	L5    float64 `yaml:"L5"`
	A     float64 `yaml:"A"`
	L2o   float64 `yaml:"L2o"`
	L3o   float64 `yaml:"L3o"`
	L4o   float64 `yaml:"L4o"`
	L5o   float64 `yaml:"L5o"`
	Ao    float64 `yaml:"Ao"`
	L2I   float64 `yaml:"L2I"`
	L3I   float64 `yaml:"L3I"`
	L4I   float64 `yaml:"L4I"`
	L5I   float64 `yaml:"L5I"`
	AI    float64 `yaml:"AI"`
	L2oI  float64 `yaml:"L2oI"`
	L3oI  float64 `yaml:"L3oI"`
	L4oI  float64 `yaml:"L4oI"`
	L5oI  float64 `yaml:"L5oI"`
	AoI   float64 `yaml:"AoI"`
	PI    float64 `yaml:"P_I"`
	ApoPI float64 `yaml:"Apo_PI"`
	SymPI float64 `yaml:"Sym_PI"`
	OAPI  float64 `yaml:"OA_PI"`
	OAI   float64 `yaml:"OAI"`
}

// Slice returns the compartments in state-vector order.
func (c Compartments) Slice() []float64 {
	return []float64{
		c.OA, c.E, c.L1, c.L2, c.L3, c.L4, c.L5, c.A,
		c.L2o, c.L3o, c.L4o, c.L5o, c.Ao,
		c.L2I, c.L3I, c.L4I, c.L5I, c.AI,
		c.L2oI, c.L3oI, c.L4oI, c.L5oI, c.AoI,
		c.PI, c.ApoPI, c.SymPI, c.OAPI, c.OAI,
	}
}

// CompartmentsFromSlice converts a state vector to named form.
func CompartmentsFromSlice(y []float64) (Compartments, error) {
	if len(y) != NumCompartments {
		return Compartments{}, fmt.Errorf("model: state has %d components, want %d", len(y), NumCompartments)
	}
	return Compartments{
		OA: y[OA], E: y[E], L1: y[L1], L2: y[L2], L3: y[L3], L4: y[L4], L5: y[L5], A: y[A],
		L2o: y[L2o], L3o: y[L3o], L4o: y[L4o], L5o: y[L5o], Ao: y[Ao],
		L2I: y[L2I], L3I: y[L3I], L4I: y[L4I], L5I: y[L5I], AI: y[AI],
		L2oI: y[L2oI], L3oI: y[L3oI], L4oI: y[L4oI], L5oI: y[L5oI], AoI: y[AoI],
		PI: y[PI], ApoPI: y[ApoPI], SymPI: y[SymPI], OAPI: y[OAPI], OAI: y[OAI],
	}, nil
}
