package train

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ritzau/gcn-trainer/pkg/logging"
)

// PredictionsFile returns the export path for a dataset's predictions.
func PredictionsFile(dataset string) string {
	return fmt.Sprintf("%s_node.csv", dataset)
}

// WritePredictions saves one predicted class id per node to a CSV file
// with a single y_pred column. An existing file at the path is
// overwritten.
func WritePredictions(path string, preds []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating predictions file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"y_pred"}); err != nil {
		return fmt.Errorf("writing predictions header: %w", err)
	}
	for _, p := range preds {
		if err := w.Write([]string{strconv.Itoa(p)}); err != nil {
			return fmt.Errorf("writing prediction row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing predictions: %w", err)
	}

	logging.Info("saved model predictions", "path", path, "rows", len(preds))
	return nil
}
