package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"rheocli/pkg/contracts/domain"
)

func defaultWindow() domain.TorqueWindow {
	return domain.TorqueWindow{Min: 42, Max: 57}
}

func TestFilterWindow(t *testing.T) {
	tests := []struct {
		name           string
		z              []float64
		torque         []float64
		window         domain.TorqueWindow
		expectedZ      []float64
		expectedTorque []float64
	}{
		{
			name:           "retains only in-window rows",
			z:              []float64{1, 2, 3, 4, 5},
			torque:         []float64{40, 45, 50, 55, 60},
			window:         defaultWindow(),
			expectedZ:      []float64{2, 3, 4},
			expectedTorque: []float64{45, 50, 55},
		},
		{
			name:           "bounds are inclusive",
			z:              []float64{1, 2, 3, 4},
			torque:         []float64{42, 57, 41.999, 57.001},
			window:         defaultWindow(),
			expectedZ:      []float64{1, 2},
			expectedTorque: []float64{42, 57},
		},
		{
			name:           "drops NaN torque rows",
			z:              []float64{1, 2, 3},
			torque:         []float64{45, math.NaN(), 50},
			window:         defaultWindow(),
			expectedZ:      []float64{1, 3},
			expectedTorque: []float64{45, 50},
		},
		{
			name:           "drops NaN z rows",
			z:              []float64{math.NaN(), 2},
			torque:         []float64{45, 50},
			window:         defaultWindow(),
			expectedZ:      []float64{2},
			expectedTorque: []float64{50},
		},
		{
			name:           "window matching nothing yields empty set",
			z:              []float64{1, 2, 3},
			torque:         []float64{10, 20, 30},
			window:         defaultWindow(),
			expectedZ:      []float64{},
			expectedTorque: []float64{},
		},
		{
			name:           "empty input",
			z:              nil,
			torque:         nil,
			window:         defaultWindow(),
			expectedZ:      []float64{},
			expectedTorque: []float64{},
		},
		{
			name:           "mismatched lengths use the shorter series",
			z:              []float64{1, 2, 3},
			torque:         []float64{45, 50},
			window:         defaultWindow(),
			expectedZ:      []float64{1, 2},
			expectedTorque: []float64{45, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, torque := FilterWindow(tt.z, tt.torque, tt.window)
			assert.Equal(t, tt.expectedZ, z)
			assert.Equal(t, tt.expectedTorque, torque)
			assert.Equal(t, len(z), len(torque), "output must stay paired")
			assert.LessOrEqual(t, len(z), len(tt.z), "output is a subset of input rows")
		})
	}
}
