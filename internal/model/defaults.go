package model

// DefaultParams returns a biologically plausible baseline parameter set
// (rates per day).
func DefaultParams() Params {
	var p Params
	p.fill([]float64{
		// d_A, l, b, K_E, d_E, m_E
		0.01, 0.02, 2.5, 1000, 0.05, 0.1,
		// d_1, m_1 .. d_5, m_5
		0.04, 0.12, 0.035, 0.1, 0.03, 0.09, 0.025, 0.08, 0.02, 0.07,
		// p, d_2o, m_2o .. d_5o, m_5o, d_Ao
		0.6, 0.04, 0.09, 0.035, 0.08, 0.03, 0.07, 0.025, 0.06, 0.015,
		// c, B_pb, c_o, B_bp, B_o, P0
		0.05, 0.001, 0.5, 0.002, 0.3, 500,
	})
	return p
}
