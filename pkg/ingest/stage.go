package ingest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
)

// Stage names one step of an ingest invocation.
type Stage string

const (
	StageStart      Stage = "start"
	StageGathering  Stage = "gathering"
	StagePrompting  Stage = "prompting"
	StageCompleting Stage = "completing"
	StageParsing    Stage = "parsing"
	StageMapping    Stage = "mapping"
	StageDone       Stage = "done"
)

var ErrEmptySource = errors.New("source url is empty")

// StageError is the terminal Failed state of an invocation: the stage that failed and why.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the failed stage to the status the HTTP surface reports.
func (e *StageError) HTTPStatus() int {
	switch e.Stage {
	case StageStart, StageGathering:
		return http.StatusBadRequest
	case StagePrompting, StageCompleting, StageParsing, StageMapping:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the client-facing description of the failure.
func (e *StageError) UserMessage() string {
	switch e.Stage {
	case StageStart:
		return "invalid source URL"
	case StageGathering:
		return "failed to scrape URL"
	case StagePrompting, StageCompleting, StageParsing, StageMapping:
		if aiprovider.IsUnconfigured(e.Err) {
			return aiprovider.NotConfiguredMessage
		}
		return "AI analysis failed"
	default:
		return "failed to save recipe"
	}
}
