package progression

import "errors"

var (
	// ErrContentMismatch the course has neither lessons nor questions
	ErrContentMismatch = errors.New("Course has no content to progress through")
	// ErrSectionLocked quiz interaction before every lesson is completed
	ErrSectionLocked = errors.New("Quiz is locked until every lesson is completed")
	// ErrPersistenceFailure progress could not be saved, the local state is kept
	ErrPersistenceFailure = errors.New("Failed to save progress")
	// ErrInvalidPosition operation does not apply to the current section or index
	ErrInvalidPosition = errors.New("Operation is not allowed at the current position")
	// ErrInvalidOption answer option out of range
	ErrInvalidOption = errors.New("Answer option is out of range")
	// ErrNotInitialized engine used before Initialize
	ErrNotInitialized = errors.New("Learning session is not initialized")
	// ErrNotEnrolled the learner is not enrolled in the course
	ErrNotEnrolled = errors.New("You are not enrolled in this course")
	// ErrNoSession no open learning session for the course
	ErrNoSession = errors.New("No open learning session for this course")
)
