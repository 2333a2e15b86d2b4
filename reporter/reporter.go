// Package reporter collects the run statistics of the schedule processing:
// how many entries were loaded, ignored, resolved, slugged or collided.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

var (
	lock   sync.Mutex
	report = map[string]interface{}{}
)

// Commit values to the report
// To print values use Write function
func Commit(key string, value interface{}) {
	lock.Lock()
	defer lock.Unlock()
	report[key] = value
}

// Get value that was previously committed
func Get(key string) (interface{}, bool) {
	lock.Lock()
	defer lock.Unlock()
	val, ok := report[key]
	return val, ok
}

// Increment the value under the specified key
// Works for int values only
// Returns the new value of the counter.
func Increment(key string) int {
	lock.Lock()
	defer lock.Unlock()
	counter, _ := report[key].(int)
	counter++
	report[key] = counter
	return counter
}

// Write prints the report as a single JSON line.
func Write(w io.Writer) error {
	lock.Lock()
	defer lock.Unlock()
	jsonString, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonString))
	return err
}

// Reset drops all the committed values.
func Reset() {
	lock.Lock()
	defer lock.Unlock()
	report = map[string]interface{}{}
}
