package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyBarrier(t *testing.T) {
	tests := []struct {
		label string
		want  Barrier
	}{
		{"DOWN AND OUT", Barrier{Mode: KnockOut, Direction: DirectionDown}},
		{"UP AND IN", Barrier{Mode: KnockIn, Direction: DirectionUp}},
		{"KNOCK-IN-KNOCK-OUT", Barrier{Mode: KnockOut}},
		{"up and out", Barrier{Mode: KnockOut, Direction: DirectionUp}},
		{"Down and In", Barrier{Mode: KnockIn, Direction: DirectionDown}},
		{"UO", Barrier{Mode: BarrierNone, Direction: DirectionUp}},
		{"KO", Barrier{Mode: KnockOut}},
		{"KI", Barrier{Mode: KnockIn}},
		{"UP DOWN IN", Barrier{Mode: KnockIn, Direction: DirectionUp}},
		{"", Barrier{}},
		{"EUROPEIA", Barrier{}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyBarrier(tt.label))
		})
	}
}

func TestEvaluateBarrier(t *testing.T) {
	obs := BarrierObservation{
		Level:   nd("14"),
		HighMax: nd("16"),
		LowMin:  nd("9"),
	}

	t.Run("null level has no effect", func(t *testing.T) {
		o := obs
		o.Level = decimal.NullDecimal{}
		assert.Equal(t, ActivationUndefined, EvaluateBarrier(Barrier{Mode: KnockOut, Direction: DirectionUp}, o))
	})

	t.Run("mode none has no effect", func(t *testing.T) {
		assert.Equal(t, ActivationUndefined, EvaluateBarrier(Barrier{Direction: DirectionUp}, obs))
	})

	t.Run("upper barrier activates when high reaches level", func(t *testing.T) {
		assert.Equal(t, Activated, EvaluateBarrier(Barrier{Mode: KnockOut, Direction: DirectionUp}, obs))

		o := obs
		o.HighMax = nd("14")
		assert.Equal(t, Activated, EvaluateBarrier(Barrier{Mode: KnockOut, Direction: DirectionUp}, o))

		o.HighMax = nd("13.99")
		assert.Equal(t, NotActivated, EvaluateBarrier(Barrier{Mode: KnockOut, Direction: DirectionUp}, o))
	})

	t.Run("lower barrier activates when low reaches level", func(t *testing.T) {
		o := obs
		o.Level = nd("9")
		assert.Equal(t, Activated, EvaluateBarrier(Barrier{Mode: KnockIn, Direction: DirectionDown}, o))

		o.Level = nd("8")
		assert.Equal(t, NotActivated, EvaluateBarrier(Barrier{Mode: KnockIn, Direction: DirectionDown}, o))
	})

	t.Run("unknown extremes never activate", func(t *testing.T) {
		o := BarrierObservation{Level: nd("14")}
		assert.Equal(t, NotActivated, EvaluateBarrier(Barrier{Mode: KnockOut, Direction: DirectionUp}, o))
		assert.Equal(t, NotActivated, EvaluateBarrier(Barrier{Mode: KnockOut, Direction: DirectionDown}, o))
	})

	t.Run("infers upper direction when level is at or above entry spot", func(t *testing.T) {
		o := obs
		o.EntrySpot = nd("12")
		assert.Equal(t, Activated, EvaluateBarrier(Barrier{Mode: KnockOut}, o))

		o.EntrySpot = nd("14")
		assert.Equal(t, Activated, EvaluateBarrier(Barrier{Mode: KnockOut}, o))
	})

	t.Run("infers lower direction when level is below entry spot", func(t *testing.T) {
		o := obs
		o.EntrySpot = nd("20")
		o.LowMin = nd("15")
		assert.Equal(t, NotActivated, EvaluateBarrier(Barrier{Mode: KnockOut}, o))

		o.LowMin = nd("13")
		assert.Equal(t, Activated, EvaluateBarrier(Barrier{Mode: KnockOut}, o))
	})

	t.Run("unresolvable direction is undefined", func(t *testing.T) {
		assert.Equal(t, ActivationUndefined, EvaluateBarrier(Barrier{Mode: KnockIn}, obs))
	})

	t.Run("re-evaluation yields the same result", func(t *testing.T) {
		b := Barrier{Mode: KnockOut, Direction: DirectionUp}
		first := EvaluateBarrier(b, obs)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, EvaluateBarrier(b, obs))
		}
	})
}
