package scouting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotateToStart(t *testing.T) {
	tour := []string{"X1-A", "X1-B", "X1-C", "X1-D"}

	t.Run("rotates to current position", func(t *testing.T) {
		rotated := rotateToStart(tour, "X1-C")
		assert.Equal(t, []string{"X1-C", "X1-D", "X1-A", "X1-B"}, rotated)
	})

	t.Run("position not on tour keeps order", func(t *testing.T) {
		rotated := rotateToStart(tour, "X1-Z")
		assert.Equal(t, tour, rotated)
	})

	t.Run("already at start keeps order", func(t *testing.T) {
		rotated := rotateToStart(tour, "X1-A")
		assert.Equal(t, tour, rotated)
	})
}
