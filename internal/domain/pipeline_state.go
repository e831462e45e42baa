package domain

// PipelineState is the observable state of the processing pipeline.
type PipelineState string

// Possible pipeline states.
const (
	StateIdle             PipelineState = "idle"
	StateExtracting       PipelineState = "extracting"
	StateExtractionFailed PipelineState = "extraction_failed"
	StateExtracted        PipelineState = "extracted"
	StateGenerating       PipelineState = "generating"
	StateGenerationFailed PipelineState = "generation_failed"
	StateGenerated        PipelineState = "generated"
)

// IsTerminal reports whether a run ends in this state before returning to idle.
func (s PipelineState) IsTerminal() bool {
	switch s {
	case StateExtractionFailed, StateGenerationFailed, StateGenerated:
		return true
	default:
		return false
	}
}

// Busy reports whether a run is in flight in this state.
func (s PipelineState) Busy() bool {
	switch s {
	case StateExtracting, StateExtracted, StateGenerating:
		return true
	default:
		return false
	}
}
