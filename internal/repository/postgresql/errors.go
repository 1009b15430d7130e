package postgresql

import "fmt"

func createQueryError(err error) error {
	return fmt.Errorf("failed to build query: %w", err)
}

func executeQueryError(err error) error {
	return fmt.Errorf("failed to run query: %w", err)
}

func scanRowError(err error) error {
	return fmt.Errorf("failed to scan result row: %w", err)
}

func collectRowsError(err error) error {
	return fmt.Errorf("failed to collect result rows: %w", err)
}
