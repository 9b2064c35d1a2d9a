package detector

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/cytoscreen/go-screening/detection"
)

// ONNXConfig configures the ONNX Runtime session behind an ONNXDetector.
type ONNXConfig struct {
	// ModelPath points at the exported .onnx model file.
	ModelPath string `json:"model_path"`

	// LibraryPath points at the onnxruntime shared library. Empty uses
	// the loader default.
	LibraryPath string `json:"library_path"`

	// InputSize is the square model input resolution (640 when unset).
	InputSize int `json:"input_size"`

	// NumClasses is the length of the per-anchor class score vector.
	NumClasses int `json:"num_classes"`

	// Anchors is the number of candidate rows the model emits per image
	// (25200 for a 640 YOLO export when unset).
	Anchors int `json:"anchors"`

	// NMSThreshold suppresses near-duplicate candidates whose mutual IoU
	// exceeds it (0.7 when unset).
	NMSThreshold float64 `json:"nms_threshold"`

	// InputName and OutputName are the model's graph tensor names.
	InputName  string `json:"input_name"`
	OutputName string `json:"output_name"`
}

func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.InputSize == 0 {
		c.InputSize = 640
	}
	if c.NumClasses == 0 {
		c.NumClasses = len(detection.BethesdaClasses)
	}
	if c.Anchors == 0 {
		c.Anchors = 25200
	}
	if c.NMSThreshold == 0 {
		c.NMSThreshold = 0.7
	}
	if c.InputName == "" {
		c.InputName = "images"
	}
	if c.OutputName == "" {
		c.OutputName = "output0"
	}
	return c
}

var ortInit sync.Once

// ONNXDetector runs a YOLO-family cytology model through ONNX Runtime.
// The session and its tensors are reused across calls, so Detect holds a
// lock for the duration of each inference.
type ONNXDetector struct {
	cfg    ONNXConfig
	mu     sync.Mutex
	sess   *ort.AdvancedSession
	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]
}

// NewONNX creates the runtime environment, allocates the input/output
// tensors and opens a session for the model.
func NewONNX(cfg ONNXConfig) (*ONNXDetector, error) {
	cfg = cfg.withDefaults()

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file %s", cfg.ModelPath)
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	var initErr error
	ortInit.Do(func() {
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "initializing onnxruntime environment")
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(cfg.InputSize), int64(cfg.InputSize)))
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}

	cols := int64(5 + cfg.NumClasses)
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Anchors), cols))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(4)
	options.SetInterOpNumThreads(2)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	sess, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "creating onnxruntime session")
	}

	return &ONNXDetector{
		cfg:    cfg,
		sess:   sess,
		input:  inputTensor,
		output: outputTensor,
	}, nil
}

// Detect implements Detector.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image, confThreshold float32) ([]detection.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sess == nil {
		return nil, errors.New("detector is closed")
	}

	if err := prepareInput(img, d.input, d.cfg.InputSize); err != nil {
		return nil, errors.Wrap(err, "preparing model input")
	}
	if err := d.sess.Run(); err != nil {
		return nil, errors.Wrap(err, "running inference")
	}

	dets := decodeOutput(
		d.output.GetData(),
		d.cfg.NumClasses,
		d.cfg.InputSize,
		img.Bounds().Dx(),
		img.Bounds().Dy(),
		confThreshold,
	)
	return suppressOverlaps(dets, d.cfg.NMSThreshold), nil
}

// Close releases the session and its tensors.
func (d *ONNXDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.input != nil {
		d.input.Destroy()
		d.input = nil
	}
	if d.output != nil {
		d.output.Destroy()
		d.output = nil
	}
	if d.sess != nil {
		d.sess.Destroy()
		d.sess = nil
	}
}
