package gosvl

import (
	"fmt"
	"io"
	"time"
)

// SendDateTime updates the device clock. This runs outside the upload
// protocol: the running application parses a plain ASCII DateTime line with
// the year counted from 2000.
func SendDateTime(w io.Writer, t time.Time) error {
	line := fmt.Sprintf("DateTime %d %d %d %d %d %d\r\n",
		t.Year()-2000, int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())
	if _, err := w.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to send datetime: %w", err)
	}
	return nil
}
