package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentageBoundaries(t *testing.T) {
	require.Equal(t, 0.0, Percentage(0, 100))
	require.Equal(t, 100.0, Percentage(100, 100))
	require.Equal(t, 50.0, Percentage(50, 100))
}

func TestPercentageRoundsToOneDecimal(t *testing.T) {
	require.Equal(t, 33.3, Percentage(1, 3))
	require.Equal(t, 66.7, Percentage(2, 3))
	require.Equal(t, 14.3, Percentage(1, 7))
}

func TestPercentageMonotonicInMarks(t *testing.T) {
	prev := -1.0
	for marks := 0; marks <= 80; marks++ {
		p := Percentage(marks, 80)
		require.GreaterOrEqual(t, p, prev, "marks=%d", marks)
		prev = p
	}
}

func TestPercentageClampsOutOfRangeInput(t *testing.T) {
	require.Equal(t, 100.0, Percentage(250, 100))
	require.Equal(t, 0.0, Percentage(-5, 100))
}

func TestPercentageZeroTotalMarks(t *testing.T) {
	require.Equal(t, 0.0, Percentage(10, 0))
	require.Equal(t, 0.0, Percentage(10, -1))
}
