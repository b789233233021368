package detect

import (
	// stdlib
	"errors"
	"fmt"
	"image"
	"log/slog"

	// internal
	"github.com/Robogera/follow/pkg/config"

	// external
	"gocv.io/x/gocv"
)

var (
	ERR_BAD_MODEL = errors.New("Can't load model")
)

// Detection is one person the model reported for one frame.
// Ids are persistent while the person stays continuously tracked
type Detection struct {
	ID         int
	Box        image.Rectangle
	Confidence float32
}

// Detector runs the person detection net and assigns persistent ids.
// Errors during inference surface as an empty result plus the error,
// malformed output never reaches the tracker
type Detector struct {
	net                gocv.Net
	output_layer_names []string
	logger             *slog.Logger
	assigner           *Assigner

	input_size image.Point
	transpose  bool
	confidence float32
	nms        float32
	class      int
}

func NewDetector(cfg *config.ConfigFile, model_path, model_config_path string, logger *slog.Logger) (*Detector, error) {
	var net gocv.Net

	switch config.ModelFormat(cfg.Model.Format) {
	case config.ModelFormatCaffe:
		net = gocv.ReadNetFromCaffe(model_config_path, model_path)
	case config.ModelFormatONNX:
		net = gocv.ReadNetFromONNX(model_path)
	case config.ModelFormatOpenVINO:
		net = gocv.ReadNet(model_path, model_config_path)
	default:
		return nil, fmt.Errorf("Unknown model format %s. Error: %w", cfg.Model.Format, ERR_BAD_MODEL)
	}

	if net.Empty() {
		return nil, fmt.Errorf("Error reading network model %s. Error: %w", model_path, ERR_BAD_MODEL)
	}

	output_layer_names := outputLayerNames(&net)
	if len(output_layer_names) == 0 {
		net.Close()
		return nil, fmt.Errorf("Can't read output layer names of %s. Error: %w", model_path, ERR_BAD_MODEL)
	}
	logger.Debug("Model info", "model", model_path, "output layers", output_layer_names)

	d := &Detector{
		net:                net,
		output_layer_names: output_layer_names,
		logger:             logger,
		assigner:           NewAssigner(cfg.Tracking.AssignMaxDistPx, cfg.Tracking.AssignTTLFrames),
		input_size:         image.Pt(int(cfg.Model.X), int(cfg.Model.Y)),
		transpose:          cfg.Model.Transpose,
		nms:                cfg.Model.NMSThreshold,
		class:              int(cfg.Model.PersonClassIndex),
	}
	d.SetConfidence(cfg.Model.ConfidenceThreshold)
	return d, nil
}

func (d *Detector) Close() {
	d.net.Close()
}

// SetConfidence clamps to [0,1]
func (d *Detector) SetConfidence(confidence float32) {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	d.confidence = confidence
}

// Reset drops id assignment history, ids restart from 1
func (d *Detector) Reset() {
	d.assigner.Reset()
}

// Detect runs one frame through the net and returns the person
// detections above the confidence threshold, ids attached
func (d *Detector) Detect(img *gocv.Mat) ([]Detection, error) {
	blob := gocv.BlobFromImage(
		*img,
		1/255.0,
		d.input_size,
		gocv.NewScalar(0, 0, 0, 0),
		true,
		false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	outputs := d.net.ForwardLayers(d.output_layer_names)
	defer func() {
		for _, output := range outputs {
			output.Close()
		}
	}()
	if len(outputs) == 0 {
		return nil, fmt.Errorf("Net produced no outputs")
	}

	// ultralytics-authored models come out transposed
	if d.transpose {
		gocv.TransposeND(outputs[0], []int{0, 2, 1}, &outputs[0])
	}

	// boxes come out in model input space, scale back to the frame
	x_scale := float64(img.Cols()) / float64(d.input_size.X)
	y_scale := float64(img.Rows()) / float64(d.input_size.Y)

	var boxes []image.Rectangle
	var confidences []float32

	output := outputs[0].Reshape(1, outputs[0].Size()[1])
	defer output.Close()
	cols := output.Cols()
	if cols < 5 {
		return nil, fmt.Errorf("Unexpected output row length: %d", cols)
	}
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		_, confidence, _, class_loc := gocv.MinMaxLoc(row.ColRange(4, cols))
		if class_loc.X != d.class || confidence < d.confidence {
			row.Close()
			continue
		}
		x := float64(row.GetFloatAt(0, 0)) * x_scale
		y := float64(row.GetFloatAt(0, 1)) * y_scale
		half_w := float64(row.GetFloatAt(0, 2)) / 2.0 * x_scale
		half_h := float64(row.GetFloatAt(0, 3)) / 2.0 * y_scale
		boxes = append(boxes, image.Rect(
			int(x-half_w), int(y-half_h),
			int(x+half_w), int(y+half_h)))
		confidences = append(confidences, confidence)
		row.Close()
	}

	var kept_boxes []image.Rectangle
	var kept_confidences []float32
	for _, i := range gocv.NMSBoxes(boxes, confidences, d.confidence, d.nms) {
		kept_boxes = append(kept_boxes, boxes[i])
		kept_confidences = append(kept_confidences, confidences[i])
	}

	ids := d.assigner.Assign(kept_boxes)
	detections := make([]Detection, 0, len(kept_boxes))
	for i, box := range kept_boxes {
		detections = append(detections, Detection{
			ID:         ids[i],
			Box:        box,
			Confidence: kept_confidences[i],
		})
	}
	return detections, nil
}

// Ids extracts just the id set of a detection list for the tracker
func Ids(detections []Detection) []int {
	ids := make([]int, 0, len(detections))
	for _, d := range detections {
		ids = append(ids, d.ID)
	}
	return ids
}

func outputLayerNames(net *gocv.Net) []string {
	var output_layer_names []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		if name != "_input" {
			output_layer_names = append(output_layer_names, name)
		}
	}
	return output_layer_names
}
