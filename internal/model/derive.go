package model

// Derive writes the rate of change of every compartment of y into ydot.
// Both slices must hold NumCompartments values; y is only read.
//
// Expressions keep the operand order of the reference model so results are
// reproducible bit for bit. Every product that feeds an addition is rounded
// through an explicit conversion, which keeps the compiler from fusing it
// into a multiply-add. Three asymmetries are kept as observed:
// OAI has no inflow term while OA_PI accumulates its exposure flow, the L5oI
// inflow is m_4o*L2oI, and the adult classes lose only to death (AoI uses
// d_A rather than d_Ao).
func Derive(p *Params, y, ydot []float64) {
	_ = y[NumCompartments-1]
	_ = ydot[NumCompartments-1]

	oa, e, l1 := y[OA], y[E], y[L1]
	l2, l3, l4, l5, a := y[L2], y[L3], y[L4], y[L5], y[A]
	l2o, l3o, l4o, l5o, ao := y[L2o], y[L3o], y[L4o], y[L5o], y[Ao]
	l2i, l3i, l4i, l5i, ai := y[L2I], y[L3I], y[L4I], y[L5I], y[AI]
	l2oi, l3oi, l4oi, l5oi, aoi := y[L2oI], y[L3oI], y[L4oI], y[L5oI], y[AoI]
	pi := y[PI]
	oai := y[OAI]

	cco := p.C * p.Co

	ydot[OA] = float64(-(p.DA+p.L)*oa) + float64(p.C*oai)
	ydot[E] = float64(p.B*.5*(oa+oai)*(1-e/p.KE)) - float64((p.DE+p.ME)*e)
	ydot[L1] = float64(p.ME*e) - float64((p.D1+p.M1)*l1)

	ydot[L2] = float64(p.P*p.M1*l1) - float64((p.D2+p.M2)*l2) + float64(p.C*l2i) - float64(p.Bpb*l2*pi)
	ydot[L3] = float64(p.M2*l2) - float64((p.D3+p.M3)*l3) + float64(p.C*l3i) - float64(p.Bpb*l3*pi)
	ydot[L4] = float64(p.M3*l3) - float64((p.D4+p.M4)*l4) + float64(p.C*l4i) - float64(p.Bpb*l4*pi)
	ydot[L5] = float64(p.M4*l4) - float64((p.D5+p.M5)*l5) + float64(p.C*l5i) - float64(p.Bpb*l5*pi)
	ydot[A] = float64(p.M5*l5) - float64(p.DA*a) + float64(p.C*ai) - float64(p.Bpb*a*pi)

	ydot[L2o] = float64((1-p.P)*p.M1*l1) - float64((p.D2o+p.M2o)*l2o) + float64(cco*l2oi) - float64(p.Bpb*l2o*pi)
	ydot[L3o] = float64(p.M2o*l2o) - float64((p.D3o+p.M3o)*l3o) + float64(cco*l3oi) - float64(p.Bpb*l3o*pi)
	ydot[L4o] = float64(p.M3o*l3o) - float64((p.D4o+p.M4o)*l4o) + float64(cco*l4oi) - float64(p.Bpb*l4o*pi)
	ydot[L5o] = float64(p.M4o*l4o) - float64((p.D5o+p.M5o)*l5o) + float64(cco*l5oi) - float64(p.Bpb*l5o*pi)
	ydot[Ao] = float64(p.M5o*l5o) - float64(p.DAo*ao) + float64(cco*aoi) - float64(p.Bpb*ao*pi)

	ydot[L2I] = float64(p.Bpb*l2*pi) - float64((p.D2+p.M2+p.C)*l2i)
	ydot[L3I] = float64(p.M2*l2i) + float64(p.Bpb*l3*pi) - float64((p.D3+p.M3+p.C)*l3i)
	ydot[L4I] = float64(p.M3*l3i) + float64(p.Bpb*l4*pi) - float64((p.D4+p.M4+p.C)*l4i)
	ydot[L5I] = float64(p.M4*l4i) + float64(p.Bpb*l5*pi) - float64((p.D5+p.M5+p.C)*l5i)
	ydot[AI] = float64(p.M5*l5i) + float64(p.Bpb*a*pi) - float64((p.DA+p.C)*ai)

	ydot[L2oI] = float64(p.Bpb*l2o*pi) - float64((p.D2o+p.M2o+cco)*l2oi)
	ydot[L3oI] = float64(p.M2o*l2oi) + float64(p.Bpb*l3o*pi) - float64((p.D3o+p.M3o+cco)*l3oi)
	ydot[L4oI] = float64(p.M3o*l3oi) + float64(p.Bpb*l4o*pi) - float64((p.D4o+p.M4o+cco)*l4oi)
	ydot[L5oI] = float64(p.M4o*l2oi) + float64(p.Bpb*l5o*pi) - float64((p.D5o+p.M5o+cco)*l5oi)
	ydot[AoI] = float64(p.M5o*l5oi) + float64(p.Bpb*ao*pi) - float64((p.DA+cco)*aoi)

	headroom := p.P0 - pi
	primary := l2i + l3i + l4i + l5i + ai
	occluded := l2oi + l3oi + l4oi + l5oi + aoi

	ydot[PI] = float64(p.Bbp*(primary+oai)*headroom) + float64(p.Bo*p.Bbp*occluded*headroom)
	ydot[ApoPI] = p.Bbp * p.Bo * occluded * headroom
	ydot[SymPI] = p.Bbp * primary * headroom
	ydot[OAPI] = p.Bbp * oai * headroom
	ydot[OAI] = -(p.DA + p.L + p.C) * oai
}

// Derivatives is the boundary form of Derive used by integration hosts that
// pass the equation count and time explicitly. Neither is used: the system
// is autonomous and the count is fixed.
func Derivatives(p *Params, neq int, t float64, y, ydot []float64) {
	_, _ = neq, t
	Derive(p, y, ydot)
}
