package services

import "fmt"

// Cascade delete stages, in execution order after the lookup.
const (
	StageLookup  = "lookup"
	StageStorage = "storage"
	StagePhotos  = "photos"
	StageDeal    = "deal"
	StageListing = "listing"
)

// DeleteError reports the stage at which a cascading delete stopped. Earlier
// stages have already been applied and are not rolled back.
type DeleteError struct {
	Stage string
	Err   error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete listing: %s stage: %v", e.Stage, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
