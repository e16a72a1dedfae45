package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rheocli/pkg/contracts/domain"
)

func TestTrialNumbers(t *testing.T) {
	tables := []domain.MeasurementTable{
		{Trial: "Trial 1", TrialNumber: 1},
		{Trial: "Trial 2", TrialNumber: 2},
		{Trial: "Trial 4", TrialNumber: 4},
	}

	assert.Equal(t, []int{1, 2, 4}, trialNumbers(tables))
	assert.Empty(t, trialNumbers(nil))
}
