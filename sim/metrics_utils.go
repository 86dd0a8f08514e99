// sim/metrics_utils.go
package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// SaveResults writes the metrics as indented JSON.
func (m *Metrics) SaveResults(fileName string) error {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating results file %s: %w", fileName, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing results file %s: %w", fileName, err)
	}

	logrus.Debugf("Successfully wrote to '%s'", fileName)
	return nil
}
