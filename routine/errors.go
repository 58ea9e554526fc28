package routine

import "fmt"

// ErrPanic returns an error wrapping the recovered panic value
func ErrPanic(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("routine: panic recovered: %w", err)
	}
	return fmt.Errorf("routine: panic recovered: %v", recovered)
}
