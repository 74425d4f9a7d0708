package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionDetector reports whether anything moved between consecutive frames.
// The tracking loop uses it to decide when landmark detection is worth
// running.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	lastChange  float64
	mu          sync.Mutex
}

// Motion detection constants
const (
	// AnalysisWidth is the width frames are shrunk to before differencing.
	AnalysisWidth = 160
	// GaussianBlurSize is the kernel size for Gaussian blur at AnalysisWidth.
	GaussianBlurSize = 7
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// NewMotionDetector creates a new MotionDetector with the given threshold,
// the percentage of pixels that must change to count as motion.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame to the previous one and returns whether motion was
// seen along with the percentage of changed pixels. The first frame after
// construction or Reset only establishes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := m.prepare(frame)
	defer gray.Close()

	if !m.initialized {
		gray.CopyTo(&m.prevGray)
		m.initialized = true
		m.lastChange = 0
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	if total == 0 {
		return false, 0
	}
	m.lastChange = float64(gocv.CountNonZero(thresh)) / float64(total) * 100.0

	gray.CopyTo(&m.prevGray)

	return m.lastChange > m.threshold, m.lastChange
}

// prepare shrinks, converts to grayscale and blurs frame.
func (m *MotionDetector) prepare(frame *gocv.Mat) gocv.Mat {
	small := gocv.NewMat()
	defer small.Close()
	if frame.Cols() > AnalysisWidth {
		h := frame.Rows() * AnalysisWidth / frame.Cols()
		gocv.Resize(*frame, &small, image.Point{X: AnalysisWidth, Y: h}, 0, 0, gocv.InterpolationArea)
	} else {
		frame.CopyTo(&small)
	}

	gray := gocv.NewMat()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}

	gocv.GaussianBlur(gray, &gray, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)
	return gray
}

// LastChange returns the change percentage measured by the last Detect.
func (m *MotionDetector) LastChange() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastChange
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// Close releases resources used by the motion detector. A closed detector
// can still be used; it starts over with a new baseline.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *MotionDetector) clearLocked() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
	m.lastChange = 0
}

// SetThreshold sets the motion detection threshold.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}
