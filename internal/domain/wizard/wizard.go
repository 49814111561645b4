// Package wizard models the guest capture flow: documents, liveness video,
// signature and review. Progress is derived from the artifacts stored on a
// verification, so it survives a page reload.
package wizard

import (
	"slices"
	"time"

	"globalchek/internal/domain/entity"
)

// Step is one stage of the capture flow.
type Step string

const (
	StepDocuments Step = "DOCUMENTS"
	StepVideo     Step = "VIDEO"
	StepSignature Step = "SIGNATURE"
	StepReview    Step = "REVIEW"
)

// Steps is the fixed order of the flow.
var Steps = []Step{StepDocuments, StepVideo, StepSignature, StepReview}

// Artifact names, also used as multipart field paths in validation errors.
const (
	ArtifactDocumentFront = "documentFront"
	ArtifactDocumentBack  = "documentBack"
	ArtifactVideoSelfie   = "videoSelfie"
	ArtifactSelfieImage   = "selfieImage"
	ArtifactSignature     = "signature"
)

// ParseStep validates a step name.
func ParseStep(raw string) (Step, bool) {
	step := Step(raw)
	if slices.Contains(Steps, step) {
		return step, true
	}

	return "", false
}

func (s Step) index() int {
	return slices.Index(Steps, s)
}

// Pose is one held head position of the liveness recording.
type Pose struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"-"`
	Millis   int64         `json:"durationMs"`
}

// LivenessPoses is the guided sequence the client records: center, then left, then right.
var LivenessPoses = []Pose{
	newPose("center", 2500*time.Millisecond),
	newPose("left", 2500*time.Millisecond),
	newPose("right", 2500*time.Millisecond),
}

// CountdownSeconds precedes the first pose.
const CountdownSeconds = 3

func newPose(name string, d time.Duration) Pose {
	return Pose{Name: name, Duration: d, Millis: d.Milliseconds()}
}

// Progress is the completion state of every step.
type Progress struct {
	CurrentStep Step     `json:"currentStep"`
	Completed   []Step   `json:"completed"`
	Missing     []string `json:"missing"`
}

// Captured reports which required artifacts are already stored.
type Captured struct {
	DocumentFront bool
	Selfie        bool // video or photo
	Signature     bool
	AgreedToTerms bool
}

// FromVerification derives the captured set from a stored record.
func FromVerification(v *entity.Verification) Captured {
	return Captured{
		DocumentFront: v.DocumentFrontImage != nil,
		Selfie:        v.HasSelfieArtifact(),
		Signature:     v.SignatureImage != nil,
		AgreedToTerms: v.SignatureImage != nil,
	}
}

// IsComplete reports whether the step's artifact has been captured.
// Review is complete once everything before it is.
func (c Captured) IsComplete(step Step) bool {
	switch step {
	case StepDocuments:
		return c.DocumentFront
	case StepVideo:
		return c.Selfie
	case StepSignature:
		return c.Signature && c.AgreedToTerms
	case StepReview:
		return len(c.Missing()) == 0
	default:
		return false
	}
}

// CanAdvance reports whether the flow may move past the given step.
func (c Captured) CanAdvance(from Step) bool {
	if from == StepReview {
		return false
	}

	return c.IsComplete(from)
}

// CanEnter reports whether every step before step has been completed, so the
// guest may work on it. Going back to an earlier step is always allowed.
func (c Captured) CanEnter(step Step) bool {
	i := step.index()
	if i < 0 {
		return false
	}
	for _, prev := range Steps[:i] {
		if !c.CanAdvance(prev) {
			return false
		}
	}

	return true
}

// Missing lists the artifacts that still block submission.
func (c Captured) Missing() []string {
	missing := make([]string, 0, 3)
	if !c.DocumentFront {
		missing = append(missing, ArtifactDocumentFront)
	}
	if !c.Selfie {
		missing = append(missing, ArtifactVideoSelfie)
	}
	if !c.Signature {
		missing = append(missing, ArtifactSignature)
	}
	if !c.AgreedToTerms {
		missing = append(missing, "agreedToTerms")
	}

	return missing
}

// Current is the first step whose artifact is still missing.
func (c Captured) Current() Step {
	for _, step := range Steps {
		if !c.IsComplete(step) {
			return step
		}
	}

	return StepReview
}

// Progress summarises the captured set for the client.
func (c Captured) Progress() Progress {
	completed := make([]Step, 0, len(Steps))
	for _, step := range Steps[:len(Steps)-1] {
		if c.IsComplete(step) {
			completed = append(completed, step)
		}
	}

	return Progress{
		CurrentStep: c.Current(),
		Completed:   completed,
		Missing:     c.Missing(),
	}
}
