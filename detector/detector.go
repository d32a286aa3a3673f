// Package detector adapts an object detection model to the proctoring
// pipeline. A Detector is loaded once at startup, shared by every session and
// must be safe for concurrent use.
package detector

import (
	"context"
	"fmt"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

type Detector interface {
	// Detect returns the detections for this frame only. No detections is an
	// empty slice, not an error. Label is left for the caller to resolve.
	Detect(ctx context.Context, frame models.Frame) ([]models.Detection, error)
	// Labels is the class id to label table of the loaded model.
	Labels() []string
}

// Label resolves a class id against a label table.
func Label(labels []string, classID int) string {
	if classID < 0 || classID >= len(labels) {
		return fmt.Sprintf("class_%d", classID)
	}
	return labels[classID]
}

// COCOLabels is the class table of COCO trained YOLO models.
var COCOLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}
