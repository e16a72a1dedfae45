package regression

import (
	"math"

	"rheocli/pkg/contracts/domain"
)

// FilterWindow returns the paired (z, torque) rows whose torque lies
// within the window, bounds inclusive. Rows where either value is NaN are
// dropped. Column identities never change, only row count.
func FilterWindow(z, torque []float64, window domain.TorqueWindow) ([]float64, []float64) {
	n := len(z)
	if len(torque) < n {
		n = len(torque)
	}

	zOut := make([]float64, 0, n)
	torqueOut := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(z[i]) || math.IsNaN(torque[i]) {
			continue
		}
		if !window.Contains(torque[i]) {
			continue
		}
		zOut = append(zOut, z[i])
		torqueOut = append(torqueOut, torque[i])
	}
	return zOut, torqueOut
}
