package cellular

// Outcome is the result of one attempt inside retry.
type Outcome int

const (
	// Succeeded stops the loop with a nil error.
	Succeeded Outcome = iota
	// Retry consumes an attempt and runs the next one if any is left.
	Retry
	// Abort stops the loop with the attempt's error.
	Abort
)

// retry runs fn at most limit times, passing the 1-based attempt number.
// It returns the number of attempts made and the error of the last attempt,
// or nil when an attempt succeeded. Exhausting the limit is reported by
// exhausted.
func retry(limit int, fn func(attempt int) (Outcome, error)) (attempts int, exhausted bool, err error) {
	for attempts < limit {
		attempts++
		outcome, attemptErr := fn(attempts)
		switch outcome {
		case Succeeded:
			return attempts, false, nil
		case Abort:
			return attempts, false, attemptErr
		}
		err = attemptErr
	}
	return attempts, true, err
}
