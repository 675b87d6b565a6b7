package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"google.golang.org/api/option"
)

// ProjectID returns explicit if set, otherwise the project_id recorded in
// the service account credentials file.
func ProjectID(explicit, credentialsFile string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", fmt.Errorf("read credentials file: %w", err)
	}

	var creds struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parse credentials file: %w", err)
	}
	if creds.ProjectID == "" {
		return "", errors.New("credentials file has no project_id; set GOOGLE_PROJECT_ID")
	}
	return creds.ProjectID, nil
}

func clientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}
