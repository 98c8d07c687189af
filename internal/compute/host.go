package compute

// Host reference kernels. The stub backend runs these in place of device
// kernels, and tests use HostBuild as a backend-independent oracle.

// HostBuild produces neighbor rows for the given positions with an all-pairs
// scan. Half mode keeps each pair once with i < j; full mode stores both
// directions.
func HostBuild(in BuildInput) [][]int {
	n := len(in.X)
	rows := make([][]int, n)

	for i := 0; i < n; i++ {
		xi, yi, zi := in.X[i], in.Y[i], in.Z[i]
		excl := in.Exclusions[in.Tag[i]]

		for j := i + 1; j < n; j++ {
			tj := in.Tag[j]
			if excl[0] == tj || excl[1] == tj || excl[2] == tj || excl[3] == tj {
				continue
			}

			dx, dy, dz := in.Box.MinImage(in.X[j]-xi, in.Y[j]-yi, in.Z[j]-zi)
			if dx*dx+dy*dy+dz*dz < in.RMaxSq {
				rows[i] = append(rows[i], j)
				if in.Full {
					rows[j] = append(rows[j], i)
				}
			}
		}
	}

	return rows
}

// hostLJForces evaluates Lennard-Jones forces over the given rows. Half rows
// apply Newton's third law; full rows accumulate one-sided and split the pair
// energy between both directions.
func hostLJForces(in ForceInput, rows [][]int) ForceOutput {
	n := len(in.X)
	out := ForceOutput{
		FX: make([]float64, n),
		FY: make([]float64, n),
		FZ: make([]float64, n),
	}

	rcutsq := in.RCut * in.RCut
	sigsq := in.Sigma * in.Sigma

	for i := 0; i < n; i++ {
		for _, j := range rows[i] {
			dx, dy, dz := in.Box.MinImage(in.X[i]-in.X[j], in.Y[i]-in.Y[j], in.Z[i]-in.Z[j])
			rsq := dx*dx + dy*dy + dz*dz
			if rsq >= rcutsq || rsq == 0 {
				continue
			}

			sr2 := sigsq / rsq
			sr6 := sr2 * sr2 * sr2
			sr12 := sr6 * sr6
			fOverR := 24 * in.Epsilon * (2*sr12 - sr6) / rsq
			pair := 4 * in.Epsilon * (sr12 - sr6)

			out.FX[i] += fOverR * dx
			out.FY[i] += fOverR * dy
			out.FZ[i] += fOverR * dz

			if in.Full {
				out.Potential += pair / 2
			} else {
				out.FX[j] -= fOverR * dx
				out.FY[j] -= fOverR * dy
				out.FZ[j] -= fOverR * dz
				out.Potential += pair
			}
		}
	}

	return out
}

func copyRows(rows [][]int) [][]int {
	out := make([][]int, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			out[i] = append([]int(nil), r...)
		}
	}
	return out
}
