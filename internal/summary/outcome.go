package summary

// Outcome is the result of building one client's summary. A nil Err means
// success with len(Tabs) tabs created; otherwise Err is the failure reason.
type Outcome struct {
	Client     string
	OutputPath string
	Tabs       []string
	Skipped    []*FileFailure
	Err        error
}

// Succeeded reports whether the summary was written.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// TabCount is the number of data tabs added to the summary.
func (o Outcome) TabCount() int {
	return len(o.Tabs)
}

// Report collects the outcomes of a batch in processing order.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) Succeeded() []Outcome {
	return r.filter(true)
}

func (r *Report) Failed() []Outcome {
	return r.filter(false)
}

func (r *Report) filter(succeeded bool) []Outcome {
	var result []Outcome
	for _, o := range r.Outcomes {
		if o.Succeeded() == succeeded {
			result = append(result, o)
		}
	}
	return result
}

// Observer is notified as clients are processed.
type Observer interface {
	ClientStarted(client string, files int)
	ClientFinished(outcome Outcome)
}
