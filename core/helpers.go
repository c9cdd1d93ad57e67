package navigation

import "fmt"

// panicSafe runs fn and turns a panic into an error so that one faulty
// generator does not take the event loop down.
func panicSafe(name string, fn func()) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s panicked: %v", name, recovered)
		}
	}()

	fn()
	return nil
}
