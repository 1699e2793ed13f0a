package model_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bugsim/internal/model"
)

func derive(p model.Params, y []float64) []float64 {
	ydot := make([]float64, model.NumCompartments)
	model.Derive(&p, y, ydot)
	return ydot
}

func randomState(r *rand.Rand) []float64 {
	y := make([]float64, model.NumCompartments)
	for i := range y {
		y[i] = r.Float64() * 500
	}
	return y
}

var _ = Describe("Derive", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
	})

	It("returns all zeros for a zero state and zero rates", func() {
		ydot := derive(model.Params{KE: 1}, make([]float64, model.NumCompartments))
		for i, v := range ydot {
			Expect(v).To(BeZero(), "compartment %d", i)
		}
	})

	It("does not guard the egg capacity divisor", func() {
		ydot := derive(model.Params{}, make([]float64, model.NumCompartments))
		Expect(math.IsNaN(ydot[model.E])).To(BeTrue())
		for i, v := range ydot {
			if i != model.E {
				Expect(v).To(BeZero(), "compartment %d", i)
			}
		}
	})

	It("reduces the egg equation to pure loss without adults", func() {
		p := model.DefaultParams()
		y := make([]float64, model.NumCompartments)
		y[model.E] = 250

		ydot := derive(p, y)
		Expect(ydot[model.E]).To(Equal(-(p.DE + p.ME) * 250))
	})

	It("is stationary when every flow is switched off", func() {
		p := model.DefaultParams()
		for _, name := range []string{
			"d_A", "l", "b", "d_E", "m_E",
			"d_1", "m_1", "d_2", "m_2", "d_3", "m_3", "d_4", "m_4", "d_5", "m_5",
			"d_2o", "m_2o", "d_3o", "m_3o", "d_4o", "m_4o", "d_5o", "m_5o", "d_Ao",
			"c", "B_pb", "B_bp",
		} {
			var err error
			p, err = p.With(name, 0)
			Expect(err).NotTo(HaveOccurred())
		}

		for trial := 0; trial < 20; trial++ {
			for i, v := range derive(p, randomState(rng)) {
				Expect(v).To(BeZero(), "trial %d compartment %d", trial, i)
			}
		}
	})

	DescribeTable("splits instar 1 maturation between the routes",
		func(split float64, closed int) {
			p := model.Params{P: split, M1: 0.3}
			for trial := 0; trial < 10; trial++ {
				y := make([]float64, model.NumCompartments)
				y[model.L1] = rng.Float64() * 1000
				Expect(derive(p, y)[closed]).To(BeZero())
			}
		},
		Entry("all primary", 1.0, model.L2o),
		Entry("all occluded", 0.0, model.L2),
	)

	DescribeTable("scales exposure linearly in the particle pool",
		func(host, shadow int) {
			p := model.Params{Bpb: 0.004}
			y := make([]float64, model.NumCompartments)
			y[host] = 75
			y[model.PI] = 30

			before := derive(p, y)
			y[model.PI] = 60
			after := derive(p, y)

			Expect(before[host]).To(BeNumerically("<", 0))
			Expect(after[host]).To(Equal(2 * before[host]))
			Expect(after[shadow]).To(Equal(2 * before[shadow]))
			Expect(after[shadow]).To(Equal(-after[host]))
		},
		Entry("instar 2", model.L2, model.L2I),
		Entry("instar 5", model.L5, model.L5I),
		Entry("adult", model.A, model.AI),
		Entry("occluded instar 3", model.L3o, model.L3oI),
		Entry("occluded adult", model.Ao, model.AoI),
	)

	It("gives the same answer on repeated calls", func() {
		p := model.DefaultParams()
		y := randomState(rng)
		first := derive(p, y)
		for i := 0; i < 5; i++ {
			Expect(derive(p, y)).To(Equal(first))
		}
	})

	Context("particle accounting", func() {
		It("splits free particle production into the two accumulators plus OA exposure", func() {
			p := model.DefaultParams()
			for trial := 0; trial < 10; trial++ {
				ydot := derive(p, randomState(rng))
				sum := ydot[model.ApoPI] + ydot[model.SymPI] + ydot[model.OAPI]
				Expect(ydot[model.PI]).To(BeNumerically("~", sum, 1e-9*(1+math.Abs(sum))))
			}
		})

		It("stops production when the pool is at capacity", func() {
			p := model.DefaultParams()
			y := randomState(rng)
			y[model.PI] = p.P0
			ydot := derive(p, y)
			Expect(ydot[model.PI]).To(BeZero())
			Expect(ydot[model.ApoPI]).To(BeZero())
			Expect(ydot[model.SymPI]).To(BeZero())
			Expect(ydot[model.OAPI]).To(BeZero())
		})
	})
})
