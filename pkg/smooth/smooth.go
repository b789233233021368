package smooth

import (
	"fmt"
	"image"
	"time"

	"github.com/rosshemsley/kalman"
	"github.com/rosshemsley/kalman/models"
	"gonum.org/v1/gonum/mat"
)

// Smoother filters the followed target's box center with a constant
// velocity model so the servo doesn't chase per-frame detector jitter.
// Reset it whenever the tracker switches targets, the filter must not
// drag the old target's velocity into the new one
type Smoother struct {
	model  *models.ConstantVelocityModel
	filter *kalman.KalmanFilter
	meas_variance float64
}

func NewSmoother(meas_variance float64) *Smoother {
	return &Smoother{meas_variance: meas_variance}
}

// Observe feeds a measured center and returns the filtered one.
// The first observation after construction or Reset passes through
func (s *Smoother) Observe(t time.Time, center image.Point) (image.Point, error) {
	if s.filter == nil {
		s.model = models.NewConstantVelocityModel(
			t,
			pointToVec(center),
			models.ConstantVelocityModelConfig{
				InitialVariance: 0.01,
				ProcessVariance: 0.01,
			})
		s.filter = kalman.NewKalmanFilter(s.model)
		return center, nil
	}
	err := s.filter.Update(t, s.model.NewPositionMeasurement(pointToVec(center), s.meas_variance))
	if err != nil {
		return center, fmt.Errorf("Can't update smoother. Error: %w", err)
	}
	return s.State(), nil
}

// Predict advances the filter on frames where the target was not
// seen, so a re-acquired box doesn't produce a command jump
func (s *Smoother) Predict(t time.Time) (image.Point, error) {
	if s.filter == nil {
		return image.Point{}, fmt.Errorf("Can't predict, no observations yet")
	}
	if err := s.filter.Predict(t); err != nil {
		return s.State(), fmt.Errorf("Can't perform prediction. Error: %w", err)
	}
	return s.State(), nil
}

func (s *Smoother) State() image.Point {
	return vecToPoint(s.model.Position(s.filter.State()))
}

func (s *Smoother) Reset() {
	s.model = nil
	s.filter = nil
}

func pointToVec(point image.Point) mat.Vector {
	return mat.NewVecDense(2, []float64{
		float64(point.X),
		float64(point.Y),
	})
}

func vecToPoint(vec mat.Vector) image.Point {
	return image.Pt(
		int(vec.AtVec(0)),
		int(vec.AtVec(1)),
	)
}
