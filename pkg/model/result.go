package model

// SeeFullReport fills the argument fields when the model answered in prose
// instead of the expected JSON object.
const SeeFullReport = "see full report"

type ExpectedShape string

const (
	ShapeSummary    ExpectedShape = "summary"
	ShapeTranscript ExpectedShape = "transcript"
)

type ResultKind string

const (
	ResultStructured   ResultKind = "structured"
	ResultTranscript   ResultKind = "transcript"
	ResultUnstructured ResultKind = "unstructured"
	ResultFailed       ResultKind = "failed"
)

// Summary is the three-field answer the summarizer prompt asks for.
type Summary struct {
	MyArgument    string `json:"myArgument" jsonschema:"description=Summary of the speaker's own core argument"`
	OtherArgument string `json:"otherArgument" jsonschema:"description=Summary of the other party's core argument"`
	Context       string `json:"context" jsonschema:"description=Background and main conflict and conclusion of the conversation"`
}

type Transcript struct {
	Text string `json:"text"`
}

type Unstructured struct {
	RawText string `json:"rawText"`
}

type Failure struct {
	LastErrorMessage string `json:"lastErrorMessage"`
}

// PipelineResult is a tagged union; only the field matching Kind is set.
type PipelineResult struct {
	Kind         ResultKind    `json:"kind"`
	Model        string        `json:"model,omitempty"`
	Structured   *Summary      `json:"structured,omitempty"`
	Transcript   *Transcript   `json:"transcript,omitempty"`
	Unstructured *Unstructured `json:"unstructured,omitempty"`
	Failed       *Failure      `json:"failed,omitempty"`
}

func NewStructuredResult(summary Summary) PipelineResult {
	return PipelineResult{Kind: ResultStructured, Structured: &summary}
}

func NewTranscriptResult(text string) PipelineResult {
	return PipelineResult{Kind: ResultTranscript, Transcript: &Transcript{Text: text}}
}

func NewUnstructuredResult(rawText string) PipelineResult {
	return PipelineResult{Kind: ResultUnstructured, Unstructured: &Unstructured{RawText: rawText}}
}

func NewFailedResult(lastErrorMessage string) PipelineResult {
	return PipelineResult{Kind: ResultFailed, Failed: &Failure{LastErrorMessage: lastErrorMessage}}
}

func (r PipelineResult) IsFailed() bool {
	return r.Kind == ResultFailed
}

// SummaryView returns the three display fields for summary-shaped results.
// Unstructured output is shown in full as the context with the argument
// fields pointing at it.
func (r PipelineResult) SummaryView() (Summary, bool) {
	switch r.Kind {
	case ResultStructured:
		if r.Structured == nil {
			return Summary{}, false
		}
		return *r.Structured, true
	case ResultUnstructured:
		if r.Unstructured == nil {
			return Summary{}, false
		}
		return Summary{
			MyArgument:    SeeFullReport,
			OtherArgument: SeeFullReport,
			Context:       r.Unstructured.RawText,
		}, true
	default:
		return Summary{}, false
	}
}
