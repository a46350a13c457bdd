package database

import (
	"fmt"
	"strings"
)

// Location describes where to find the database. URL wins when set;
// otherwise Instance names a Cloud SQL instance reached over the Unix socket
// Cloud Run mounts at /cloudsql/<instance>.
type Location struct {
	URL      string
	Instance string
	User     string
	Password string
	Name     string
}

// Configured reports whether any location was given.
func (l Location) Configured() bool {
	return l.URL != "" || l.Instance != ""
}

// BuildURL returns a connection string for lib/pq.
func BuildURL(l Location) (string, error) {
	if l.URL != "" {
		return l.URL, nil
	}

	if l.Instance == "" {
		return "", fmt.Errorf("neither DATABASE_URL nor INSTANCE_CONNECTION_NAME is set")
	}

	if l.User == "" || l.Name == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	socketPath := fmt.Sprintf("/cloudsql/%s", l.Instance)

	if l.Password != "" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			socketPath, l.User, l.Password, l.Name), nil
	}

	// IAM authentication
	return fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable",
		socketPath, l.User, l.Name), nil
}

// Redact hides the password in a connection string for logging.
func Redact(connStr string) string {
	if strings.HasPrefix(connStr, "postgresql://") || strings.HasPrefix(connStr, "postgres://") {
		parts := strings.SplitN(connStr, "@", 2)
		if len(parts) == 2 {
			userParts := strings.Split(parts[0], ":")
			if len(userParts) >= 3 {
				return userParts[0] + ":" + userParts[1] + ":***@" + parts[1]
			}
		}
		return connStr
	}

	fields := strings.Fields(connStr)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}
